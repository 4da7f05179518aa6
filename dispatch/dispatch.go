// Package dispatch fans a NotificationData out to every healthy
// registered provider concurrently, folding each outcome back into the
// registry's health bookkeeping.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/providers"
	"github.com/engels74/moversentinel/registry"
	"github.com/engels74/moversentinel/telemetry/logging"
	"github.com/engels74/moversentinel/telemetry/tracing"
)

// DefaultProviderTimeout is the per-provider wall-clock deadline applied
// when a Dispatcher isn't configured with its own.
const DefaultProviderTimeout = 15 * time.Second

// Dispatcher fans NotificationData out to the registry's healthy
// providers.
type Dispatcher struct {
	registry        *registry.Registry
	providerTimeout time.Duration
	logger          *slog.Logger
	dryRun          bool
}

// New constructs a Dispatcher. logger may be nil, in which case
// slog.Default() is used. providerTimeout <= 0 uses DefaultProviderTimeout.
func New(reg *registry.Registry, providerTimeout time.Duration, logger *slog.Logger, dryRun bool) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if providerTimeout <= 0 {
		providerTimeout = DefaultProviderTimeout
	}
	return &Dispatcher{registry: reg, providerTimeout: providerTimeout, logger: logger, dryRun: dryRun}
}

// Dispatch delivers data to every currently healthy provider concurrently
// and returns their outcomes in the providers' registration order.
func (d *Dispatcher) Dispatch(ctx context.Context, data models.NotificationData) []models.NotificationResult {
	entries := d.registry.GetHealthyEntries()
	if len(entries) == 0 {
		d.logger.Warn("dispatch skipped, no healthy providers registered")
		return nil
	}

	if data.CorrelationID == "" {
		data.CorrelationID = uuid.NewString()
	}
	ctx = logging.WithCorrelationID(ctx, data.CorrelationID)
	logger := logging.FromContext(ctx, d.logger)

	if d.dryRun {
		return d.dispatchDryRun(logger, entries, data)
	}

	results := make([]models.NotificationResult, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry registry.Entry) {
			defer wg.Done()
			results[i] = d.runOne(ctx, entry, data)
		}(i, entry)
	}
	wg.Wait()

	d.logSummary(logger, results)
	return results
}

func (d *Dispatcher) dispatchDryRun(logger *slog.Logger, entries []registry.Entry, data models.NotificationData) []models.NotificationResult {
	recipients := make([]string, len(entries))
	for i, e := range entries {
		recipients[i] = e.ID
	}
	logger.Info("dry-run dispatch", "recipients", recipients, "payload", data)

	results := make([]models.NotificationResult, len(entries))
	for i, e := range entries {
		results[i] = models.NotificationResult{Success: true, ProviderIdentifier: e.ID, DeliveryTimeMS: 0}
	}
	return results
}

func (d *Dispatcher) runOne(ctx context.Context, entry registry.Entry, data models.NotificationData) models.NotificationResult {
	provider, ok := entry.Provider.(providers.Provider)
	if !ok {
		result := models.NotificationResult{
			Success:            false,
			ProviderIdentifier: entry.ID,
			ErrorMessage:       fmt.Sprintf("dispatch failed: provider %q does not implement the provider contract", entry.ID),
			ShouldRetry:        false,
		}
		d.registry.MarkUnhealthy(entry.ID, result.ErrorMessage)
		return result
	}

	taskCtx, cancel := context.WithTimeout(ctx, d.providerTimeout)
	defer cancel()

	taskCtx, finishSpan := tracing.StartSpan(taskCtx, "dispatch."+entry.ID)
	var spanErr error
	defer func() { finishSpan(spanErr) }()

	start := time.Now()
	result, err := provider.SendNotification(taskCtx, data)
	if err != nil {
		spanErr = err
		if taskCtx.Err() == context.DeadlineExceeded {
			msg := fmt.Sprintf("delivery timed out after %s", d.providerTimeout)
			d.registry.MarkForRetry(entry.ID, msg)
			return models.NotificationResult{
				Success:            false,
				ProviderIdentifier: entry.ID,
				ErrorMessage:       msg,
				DeliveryTimeMS:     float64(time.Since(start).Microseconds()) / 1000.0,
				ShouldRetry:        true,
			}
		}
		if taskCtx.Err() == context.Canceled {
			// shutdown, not the provider's fault
			msg := "delivery cancelled"
			d.registry.MarkForRetry(entry.ID, msg)
			return models.NotificationResult{
				Success:            false,
				ProviderIdentifier: entry.ID,
				ErrorMessage:       msg,
				DeliveryTimeMS:     float64(time.Since(start).Microseconds()) / 1000.0,
				ShouldRetry:        true,
			}
		}
		msg := fmt.Sprintf("dispatch failed: %s", sanitize(err.Error()))
		d.registry.MarkUnhealthy(entry.ID, msg)
		return models.NotificationResult{
			Success:            false,
			ProviderIdentifier: entry.ID,
			ErrorMessage:       msg,
			DeliveryTimeMS:     float64(time.Since(start).Microseconds()) / 1000.0,
			ShouldRetry:        false,
		}
	}

	if !result.Success {
		spanErr = errors.New(result.ErrorMessage)
		if result.ShouldRetry {
			d.registry.MarkForRetry(entry.ID, result.ErrorMessage)
		} else {
			d.registry.MarkUnhealthy(entry.ID, result.ErrorMessage)
		}
		return result
	}

	d.registry.RecordSuccess(entry.ID)
	return result
}

// logSummary partitions failures into timeouts and other dispatch errors,
// logging each partition at a distinct severity. logger already carries
// the cycle's correlation id.
func (d *Dispatcher) logSummary(logger *slog.Logger, results []models.NotificationResult) {
	var timeouts, others []string
	for _, r := range results {
		if r.Success {
			continue
		}
		if r.ShouldRetry {
			timeouts = append(timeouts, r.ProviderIdentifier)
		} else {
			others = append(others, r.ProviderIdentifier)
		}
	}
	if len(timeouts) > 0 {
		logger.Warn("dispatch timeouts", "providers", timeouts)
	}
	if len(others) > 0 {
		logger.Error("dispatch errors", "providers", others)
	}
}
