package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/engels74/moversentinel/adminhttp"
	appconfig "github.com/engels74/moversentinel/config"
	"github.com/engels74/moversentinel/dispatch"
	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/lifecycle"
	"github.com/engels74/moversentinel/orchestrator"
	"github.com/engels74/moversentinel/providers"
	"github.com/engels74/moversentinel/registry"
	"github.com/engels74/moversentinel/sampler"
	"github.com/engels74/moversentinel/telemetry/health"
	"github.com/engels74/moversentinel/telemetry/logging"
	"github.com/engels74/moversentinel/telemetry/metrics"
	"github.com/engels74/moversentinel/telemetry/otelinit"
	"github.com/engels74/moversentinel/transport"
)

const serviceName = "moversentinel"

const sampleCacheEntries = 64

// defaultRateWindowSize is the number of trailing samples the rate
// calculator averages over, matching the documented default.
const defaultRateWindowSize = 3

// NewRunCommand builds the `run` subcommand: loads config, wires the
// monitoring runtime, and blocks until SIGINT/SIGTERM.
func NewRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the mover monitoring loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "/etc/moversentinel/config.yaml", "path to the configuration file")
	return cmd
}

func runMain(ctx context.Context, configPath string) error {
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return err
	}

	var levelVar slog.LevelVar
	levelVar.Set(parseLogLevel(cfg.Application.LogLevel))
	logger := logging.New(&levelVar)

	reg := registry.New()

	promReg := prometheus.NewRegistry()
	promMetrics := metrics.NewPrometheusProvider(promReg)

	otelProviders, err := otelinit.Init(ctx, serviceName, cfg.Application.OTLPEndpoint, cfg.Application.OTLPInsecure)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return err
	}
	defer func() { _ = otelProviders.Shutdown(context.Background()) }()
	otel.SetTracerProvider(otelProviders.Tracer)

	metricsProvider := metrics.Provider(promMetrics)
	if cfg.Application.OTLPEndpoint != "" {
		otelMetrics, err := metrics.NewOTelProvider(otelProviders.Meter.Meter(serviceName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
			return err
		}
		metricsProvider = metrics.Multi{Backends: []metrics.Provider{promMetrics, otelMetrics}}
	}

	providerSet, err := buildProviders(cfg, logger, metricsProvider)
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
	orch := orchestrator.New(orchCfg, mon, smp, disp, reg, providerSet, metricsProvider, logger)

	evaluator := health.NewEvaluator(5*time.Second, healthProbes(reg))
	adminSrv := adminhttp.New(evaluator, reg, promReg)
	httpSrv := &http.Server{Addr: cfg.Application.AdminAddr, Handler: adminSrv.Handler(), ReadHeaderTimeout: 5 * time.Second}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("signal received, shutting down")
		cancel()
		<-sigCh
		logger.Warn("second signal received, forcing exit")
		os.Exit(1)
	}()

	go func() {
		logger.Info("admin http listening", "addr", cfg.Application.AdminAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin http server failed", "error", err)
		}
	}()
	go func() {
		<-runCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	watcher := appconfig.NewWatcher(configPath, logger)
	go func() {
		if err := watcher.Run(runCtx); err != nil && err != context.Canceled {
			logger.Error("config watcher exited", "error", err)
		}
	}()
	go watchConfig(runCtx, watcher, &levelVar, logger)

	err = orch.Run(runCtx)
	if err != nil && err != context.Canceled {
		logger.Error("orchestrator exited with error", "error", err)
		return err
	}
	return nil
}

// watchConfig applies the subset of configuration that can change safely
// without restarting the monitoring loop. Log level takes effect
// immediately; everything else (roots, thresholds, provider set) is
// wired into the orchestrator and providers at startup and needs a
// process restart to pick up.
func watchConfig(ctx context.Context, watcher *appconfig.Watcher, levelVar *slog.LevelVar, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-watcher.Updates():
			if !ok {
				return
			}
			newLevel := parseLogLevel(cfg.Application.LogLevel)
			if newLevel != levelVar.Level() {
				levelVar.Set(newLevel)
				logger.Info("log level reloaded", "level", cfg.Application.LogLevel)
			}
			logger.Info("config file changed; most settings require a restart to apply")
		}
	}
}

func buildProviders(cfg *appconfig.Config, logger *slog.Logger, metricsProvider metrics.Provider) ([]providers.Provider, error) {
	out := make([]providers.Provider, 0, len(cfg.Providers.Enabled))
	for _, id := range cfg.Providers.Enabled {
		switch id {
		case "webhook":
			var client transport.Poster
			if cfg.Application.DryRun {
				client = transport.NewDryRun(logger)
			} else {
				transportCfg := transport.DefaultConfig()
				transportCfg.MaxRetries = cfg.Notifications.RetryAttempts
				client = transport.New(transportCfg, logger, metricsProvider)
			}
			out = append(out, providers.NewWebhookProvider("webhook", cfg.Providers.WebhookURL, client, cfg.Providers.ProviderTimeout.Duration))
		case "log":
			out = append(out, providers.NewLogProvider("log", logger))
		default:
			return nil, errkind.New(errkind.ConfigurationInvalid, "buildProviders", fmt.Errorf("unknown provider identifier %q", id))
		}
	}
	return out, nil
}

func healthProbes(reg *registry.Registry) map[string]health.ProbeFunc {
	return map[string]health.ProbeFunc{
		"providers": func(ctx context.Context) health.Result {
			entries := reg.All()
			for _, e := range entries {
				if !e.Health.IsHealthy {
					return health.Degraded("providers", fmt.Sprintf("%s unhealthy: %s", e.ID, e.Health.LastErrorMessage))
				}
			}
			if len(entries) == 0 {
				return health.Unhealthy("providers", "no providers registered")
			}
			return health.Healthy("providers")
		},
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
