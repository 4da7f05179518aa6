package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type healthzProvider struct {
	ID                  string `json:"id"`
	IsHealthy           bool   `json:"is_healthy"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	LastErrorMessage    string `json:"last_error_message,omitempty"`
}

type healthzResponse struct {
	Status    string            `json:"status"`
	Providers []healthzProvider `json:"providers"`
}

// NewStatusCommand builds the `status` subcommand: queries a running
// instance's /healthz and renders a colored table of provider health.
func NewStatusCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show provider health from a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:9091", "admin HTTP base address")
	return cmd
}

func runStatus(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/healthz")
	if err != nil {
		return fmt.Errorf("query /healthz: %w", err)
	}
	defer resp.Body.Close()

	var body healthzResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode /healthz response: %w", err)
	}

	fmt.Printf("overall status: %s\n\n", colorForStatus(body.Status)(body.Status))

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"PROVIDER", "STATUS", "FAILURES", "LAST ERROR"})
	for _, p := range body.Providers {
		tbl.AppendRow(table.Row{p.ID, colorForProvider(p)(providerStatusLabel(p)), p.ConsecutiveFailures, p.LastErrorMessage})
	}
	fmt.Println(tbl.Render())
	return nil
}

func providerStatusLabel(p healthzProvider) string {
	switch {
	case !p.IsHealthy:
		return "unhealthy"
	case p.ConsecutiveFailures > 0:
		return "retrying"
	default:
		return "healthy"
	}
}

func colorForProvider(p healthzProvider) func(a ...interface{}) string {
	switch {
	case !p.IsHealthy:
		return color.New(color.FgRed).SprintFunc()
	case p.ConsecutiveFailures > 0:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgGreen).SprintFunc()
	}
}

func colorForStatus(status string) func(a ...interface{}) string {
	switch status {
	case "healthy":
		return color.New(color.FgGreen).SprintFunc()
	case "degraded":
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}
