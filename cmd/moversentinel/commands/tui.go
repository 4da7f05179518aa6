package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/engels74/moversentinel/config"
	"github.com/engels74/moversentinel/dispatch"
	"github.com/engels74/moversentinel/lifecycle"
	"github.com/engels74/moversentinel/orchestrator"
	"github.com/engels74/moversentinel/registry"
	"github.com/engels74/moversentinel/sampler"
	"github.com/engels74/moversentinel/telemetry/logging"
	"github.com/engels74/moversentinel/telemetry/metrics"
	"github.com/engels74/moversentinel/tui"
)

const tuiRefreshInterval = 2 * time.Second

// NewTUICommand builds the `tui` subcommand: launches the bubbletea
// dashboard against a locally-run orchestrator instance.
func NewTUICommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the live monitoring dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "/etc/moversentinel/config.yaml", "path to the configuration file")
	return cmd
}

func runTUI(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return err
	}

	logger := logging.New(parseLogLevel(cfg.Application.LogLevel))
	reg := registry.New()

	providerSet, err := buildProviders(cfg, logger, metrics.NoopProvider{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return err
	}

	mon := lifecycle.New(cfg.Monitoring.PIDFile, cfg.Monitoring.PIDCheckInterval.Duration, logger)
	smp := sampler.New(sampleCacheEntries)
	disp := dispatch.New(reg, cfg.Providers.ProviderTimeout.Duration, logger, cfg.Application.DryRun)

	orchCfg := orchestrator.Config{
		Roots:             cfg.Monitoring.Roots,
		Exclusions:        cfg.Monitoring.ExclusionPaths,
		SamplingInterval:  cfg.Monitoring.SamplingInterval.Duration,
		WindowSize:        defaultRateWindowSize,
		Thresholds:        cfg.Notifications.Thresholds,
		CompletionEnabled: cfg.Notifications.CompletionEnabled,
	}
	orch := orchestrator.New(orchCfg, mon, smp, disp, reg, providerSet, metrics.NoopProvider{}, logger)

	dashboard := tui.NewDashboard(reg, tuiRefreshInterval)
	orch.AddObserver(dashboard)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := orch.Run(runCtx); err != nil && err != context.Canceled {
			logger.Error("orchestrator exited with error", "error", err)
		}
	}()

	err = dashboard.Run()
	cancel()
	return err
}
