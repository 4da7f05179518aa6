// Package tui renders a read-only bubbletea dashboard over the
// orchestrator's lifecycle and progress stream: current state, a
// percent bar, rate/ETC, and a provider health table. It observes
// through orchestrator.Observer and never drives orchestrator state.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/engels74/moversentinel/format"
	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/registry"
)

type tickMsg time.Time

type lifecycleMsg models.MoverLifecycleEvent

type progressMsg models.ProgressData

type healthMsg []registry.Entry

// Model is the bubbletea model for the dashboard.
type Model struct {
	registry        *registry.Registry
	refreshInterval time.Duration

	width, height int

	state        models.MoverState
	progress     models.ProgressData
	haveProgress bool
	entries      []registry.Entry
}

// NewModel constructs a dashboard Model polling reg for provider health
// every refreshInterval.
func NewModel(reg *registry.Registry, refreshInterval time.Duration) Model {
	return Model{
		registry:        reg,
		refreshInterval: refreshInterval,
		state:           models.StateWaiting,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.refreshInterval), refreshHealth(m.registry))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func refreshHealth(reg *registry.Registry) tea.Cmd {
	return func() tea.Msg { return healthMsg(reg.All()) }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tickMsg:
		return m, tea.Batch(tick(m.refreshInterval), refreshHealth(m.registry))
	case healthMsg:
		m.entries = msg
	case lifecycleMsg:
		m.state = msg.NewState
		if msg.NewState == models.StateWaiting {
			m.haveProgress = false
		}
	case progressMsg:
		m.progress = models.ProgressData(msg)
		m.haveProgress = true
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("moversentinel"))
	b.WriteString("  ")
	b.WriteString(stateStyle(string(m.state)).Render(string(m.state)))
	b.WriteString("\n\n")

	if m.haveProgress {
		b.WriteString(renderProgress(m.progress))
		b.WriteString("\n\n")
	} else {
		b.WriteString(labelStyle.Render("waiting for a mover cycle to start"))
		b.WriteString("\n\n")
	}

	b.WriteString(headerLine())
	b.WriteString("\n")
	for _, e := range m.entries {
		b.WriteString(renderProviderRow(e))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

func renderProgress(p models.ProgressData) string {
	const barWidth = 40
	filled := int(p.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	rate := format.MustRate(p.RateBytesPerSecond)
	etc := "unknown"
	if p.ETC != nil {
		if until := time.Until(*p.ETC); until > 0 {
			if d, err := format.Duration(until.Seconds()); err == nil {
				etc = "in " + d
			}
		} else {
			etc = "imminent"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", okStyle.Render(bar), valueStyle.Render(fmt.Sprintf("%.1f%%", p.Percent)))
	fmt.Fprintf(&b, "%s %s / %s    %s %s    %s %s",
		labelStyle.Render("moved"), valueStyle.Render(format.MustSize(p.MovedBytes)),
		valueStyle.Render(format.MustSize(p.TotalBytes)),
		labelStyle.Render("rate"), valueStyle.Render(rate),
		labelStyle.Render("etc"), valueStyle.Render(etc),
	)
	return b.String()
}

func headerLine() string {
	return labelStyle.Render(fmt.Sprintf("%-20s %-10s %-10s %s", "PROVIDER", "STATUS", "FAILURES", "LAST ERROR"))
}

func renderProviderRow(e registry.Entry) string {
	retrying := e.Health.IsHealthy && e.Health.ConsecutiveFailures > 0
	status := "healthy"
	switch {
	case !e.Health.IsHealthy:
		status = "unhealthy"
	case retrying:
		status = "retrying"
	}
	style := healthStyle(e.Health.IsHealthy, retrying)
	return fmt.Sprintf("%-20s %s %-10d %s",
		e.ID, style.Render(fmt.Sprintf("%-10s", status)), e.Health.ConsecutiveFailures, e.Health.LastErrorMessage)
}
