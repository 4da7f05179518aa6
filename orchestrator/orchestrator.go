// Package orchestrator owns the monitoring runtime graph: it drives the
// lifecycle monitor, runs the sampling loop while a mover is active,
// evaluates progress thresholds, and dispatches notifications through
// the registry and dispatcher.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engels74/moversentinel/calculator"
	"github.com/engels74/moversentinel/dispatch"
	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/format"
	"github.com/engels74/moversentinel/lifecycle"
	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/providers"
	"github.com/engels74/moversentinel/registry"
	"github.com/engels74/moversentinel/sampler"
	"github.com/engels74/moversentinel/telemetry/metrics"
)

// Observer receives read-only notifications of orchestrator activity.
// Implementations (e.g. the TUI) must not block for long; lifecycle
// callbacks run on the orchestrator's event-loop goroutine and progress
// callbacks on its sampling-loop goroutine.
type Observer interface {
	OnLifecycleEvent(models.MoverLifecycleEvent)
	OnProgress(models.ProgressData)
}

// Config holds the per-deployment monitoring parameters.
type Config struct {
	Roots             []string
	Exclusions        []string
	SamplingInterval  time.Duration
	WindowSize        int
	Thresholds        []float64 // percentages, need not be pre-sorted
	SampleCacheTTL    time.Duration
	CompletionEnabled bool
}

// Orchestrator wires the lifecycle monitor, disk sampler, provider
// registry and dispatcher into the end-to-end monitoring cycle.
type Orchestrator struct {
	cfg         Config
	monitor     *lifecycle.Monitor
	sampler     *sampler.Sampler
	dispatcher  *dispatch.Dispatcher
	registry    *registry.Registry
	providers   []providers.Provider
	metrics     metrics.Provider
	logger      *slog.Logger

	mu                 sync.Mutex
	observers          []Observer
	baseline           *models.DiskSample
	samples            []models.DiskSample
	notifiedThresholds map[float64]struct{}
	correlationID      string
	cycleID            uint64
	latestProgress     *models.ProgressData
	cancelSampling     context.CancelFunc
	samplingDone       chan struct{}
}

// New constructs an Orchestrator. metricsProvider and logger may be nil,
// in which case metrics.NoopProvider{} and slog.Default() are used.
func New(cfg Config, monitor *lifecycle.Monitor, smp *sampler.Sampler, dispatcher *dispatch.Dispatcher, reg *registry.Registry, providerSet []providers.Provider, metricsProvider metrics.Provider, logger *slog.Logger) *Orchestrator {
	if metricsProvider == nil {
		metricsProvider = metrics.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		monitor:    monitor,
		sampler:    smp,
		dispatcher: dispatcher,
		registry:   reg,
		providers:  providerSet,
		metrics:    metricsProvider,
		logger:     logger,
	}
}

// AddObserver registers obs to receive lifecycle and progress callbacks.
func (o *Orchestrator) AddObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

// Run validates and registers providers, then drives the lifecycle event
// loop until ctx is cancelled or the monitor stream closes.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.initialize(ctx); err != nil {
		return err
	}

	monitorDone := make(chan error, 1)
	go func() { monitorDone <- o.monitor.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			o.stopSampling()
			<-monitorDone
			return ctx.Err()
		case ev, ok := <-o.monitor.Events():
			if !ok {
				o.stopSampling()
				return <-monitorDone
			}
			o.handleLifecycleEvent(ctx, ev)
		}
	}
}

// initialize validates and health-checks every configured provider,
// registering those that pass validation. Fails if none register.
func (o *Orchestrator) initialize(ctx context.Context) error {
	for _, p := range o.providers {
		if err := p.ValidateConfig(); err != nil {
			o.logger.Warn("provider failed validation, skipping", "provider", p.Identifier(), "error", err)
			continue
		}
		health, err := p.HealthCheck(ctx)
		if err != nil {
			health = models.ProviderHealth{IsHealthy: false, LastErrorMessage: err.Error(), LastCheckTimestamp: time.Now()}
		}
		if err := o.registry.Register(p.Identifier(), p, health); err != nil {
			o.logger.Warn("provider registration failed", "provider", p.Identifier(), "error", err)
		}
	}
	if len(o.registry.GetHealthyEntries()) == 0 && !o.anyRegistered() {
		return errkind.New(errkind.ConfigurationInvalid, "orchestrator.initialize", fmt.Errorf("zero providers registered"))
	}
	return nil
}

func (o *Orchestrator) anyRegistered() bool {
	for _, p := range o.providers {
		if _, ok := o.registry.Get(p.Identifier()); ok {
			return true
		}
	}
	return false
}

func (o *Orchestrator) handleLifecycleEvent(ctx context.Context, ev models.MoverLifecycleEvent) {
	o.notifyLifecycle(ev)
	o.metrics.IncLifecycleTransition(string(ev.PreviousState), string(ev.NewState))

	switch ev.NewState {
	case models.StateStarted:
		o.logger.Info("mover started", "pid", ev.PID)
		o.startCycle(ctx)
	case models.StateCompleted:
		o.logger.Info("mover completed", "pid", ev.PID)
		o.completeCycle(ctx)
	}
}

func (o *Orchestrator) startCycle(ctx context.Context) {
	o.mu.Lock()
	if o.baseline != nil {
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()

	baseline, err := o.sampler.Capture(o.cfg.Roots, o.cfg.Exclusions)
	if err != nil {
		o.logger.Error("baseline capture failed, aborting cycle start", "error", err)
		return
	}

	o.mu.Lock()
	o.baseline = &baseline
	o.samples = []models.DiskSample{baseline}
	o.notifiedThresholds = make(map[float64]struct{})
	o.correlationID = uuid.NewString()
	o.latestProgress = nil
	o.cycleID++
	cycleID := o.cycleID
	o.mu.Unlock()

	sampleCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.mu.Lock()
	o.cancelSampling = cancel
	o.samplingDone = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		o.runSamplingLoop(sampleCtx, cycleID)
	}()

	o.dispatchNotification(ctx, models.EventStarted, models.ProgressData{
		TotalBytes:     baseline.BytesUsed,
		RemainingBytes: baseline.BytesUsed,
	})
}

func (o *Orchestrator) completeCycle(ctx context.Context) {
	o.stopSampling()

	o.mu.Lock()
	hadCycle := o.baseline != nil
	var progress models.ProgressData
	if o.latestProgress != nil {
		progress = *o.latestProgress
	} else if o.baseline != nil {
		progress = models.ProgressData{TotalBytes: o.baseline.BytesUsed, RemainingBytes: o.baseline.BytesUsed}
	}
	o.mu.Unlock()

	if hadCycle && o.cfg.CompletionEnabled {
		o.dispatchNotification(ctx, models.EventCompleted, progress)
	}

	o.mu.Lock()
	o.baseline = nil
	o.samples = nil
	o.notifiedThresholds = nil
	o.latestProgress = nil
	o.mu.Unlock()

	o.monitor.Reset()
}

func (o *Orchestrator) stopSampling() {
	o.mu.Lock()
	cancel := o.cancelSampling
	done := o.samplingDone
	o.cancelSampling = nil
	o.samplingDone = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) runSamplingLoop(ctx context.Context, cycleID uint64) {
	ticker := time.NewTicker(o.cfg.SamplingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.mu.Lock()
			current := o.cycleID
			o.mu.Unlock()
			if current != cycleID {
				return
			}
			o.tick(ctx, cycleID)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context, cycleID uint64) {
	sample, err := o.sampler.Sample(o.cfg.Roots, o.cfg.Exclusions, o.cfg.SampleCacheTTL)
	if err != nil {
		o.logger.Warn("sample failed, will retry next tick", "error", err)
		return
	}
	o.metrics.ObserveSampleBytes(sample.BytesUsed)

	o.mu.Lock()
	if o.cycleID != cycleID || o.baseline == nil {
		o.mu.Unlock()
		return
	}
	o.samples = append(o.samples, sample)
	samples := append([]models.DiskSample(nil), o.samples...)
	baseline := o.baseline.BytesUsed
	o.mu.Unlock()

	progress, err := calculator.CalculateProgressData(baseline, sample.BytesUsed, samples, o.cfg.WindowSize)
	if err != nil {
		o.logger.Warn("progress calculation failed, will retry next tick", "error", err)
		return
	}

	o.mu.Lock()
	if o.cycleID != cycleID {
		o.mu.Unlock()
		return
	}
	o.latestProgress = &progress
	o.mu.Unlock()

	o.notifyProgress(progress)
	o.evaluateThresholds(ctx, progress)
}

func (o *Orchestrator) evaluateThresholds(ctx context.Context, progress models.ProgressData) {
	o.mu.Lock()
	thresholds := append([]float64(nil), o.cfg.Thresholds...)
	sort.Float64s(thresholds)

	var crossed float64
	found := false
	for _, t := range thresholds {
		if _, notified := o.notifiedThresholds[t]; notified {
			continue
		}
		if progress.Percent >= t {
			crossed = t
			found = true
			break
		}
	}
	if found {
		o.notifiedThresholds[crossed] = struct{}{}
	}
	o.mu.Unlock()

	if found {
		o.dispatchNotification(ctx, models.EventProgress, progress)
	}
}

func (o *Orchestrator) dispatchNotification(ctx context.Context, eventType models.EventType, progress models.ProgressData) {
	o.mu.Lock()
	correlationID := o.correlationID
	o.mu.Unlock()

	data := models.NotificationData{
		EventType:     eventType,
		Percent:       progress.Percent,
		RemainingData: format.MustSize(progress.RemainingBytes),
		MovedData:     format.MustSize(progress.MovedBytes),
		TotalData:     format.MustSize(progress.TotalBytes),
		Rate:          format.MustRate(progress.RateBytesPerSecond),
		ETCTimestamp:  progress.ETC,
		CorrelationID: correlationID,
	}

	results := o.dispatcher.Dispatch(ctx, data)
	for _, r := range results {
		o.metrics.IncDispatchResult(r.ProviderIdentifier, r.Success)
		o.metrics.ObserveDeliveryMS(r.ProviderIdentifier, r.DeliveryTimeMS)
	}
}

func (o *Orchestrator) notifyLifecycle(ev models.MoverLifecycleEvent) {
	o.mu.Lock()
	observers := append([]Observer(nil), o.observers...)
	o.mu.Unlock()
	for _, obs := range observers {
		obs.OnLifecycleEvent(ev)
	}
}

func (o *Orchestrator) notifyProgress(progress models.ProgressData) {
	o.mu.Lock()
	observers := append([]Observer(nil), o.observers...)
	o.mu.Unlock()
	for _, obs := range observers {
		obs.OnProgress(progress)
	}
}
