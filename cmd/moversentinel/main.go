// Command moversentinel monitors a disk-migration ("mover") process via
// its PID file, tracks progress, and dispatches notifications to a
// pluggable set of providers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/engels74/moversentinel/cmd/moversentinel/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "moversentinel",
		Short:         "Monitor a mover process and dispatch progress notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewTUICommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
