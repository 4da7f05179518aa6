package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/engels74/moversentinel/models"
)

// LogProvider writes notifications through slog instead of the network.
// Always healthy; useful as a zero-dependency default and in tests.
type LogProvider struct {
	id     string
	logger *slog.Logger
}

// NewLogProvider constructs a LogProvider. logger may be nil, in which
// case slog.Default() is used.
func NewLogProvider(id string, logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{id: id, logger: logger}
}

func (l *LogProvider) Identifier() string { return l.id }

func (l *LogProvider) ValidateConfig() error { return nil }

func (l *LogProvider) HealthCheck(context.Context) (models.ProviderHealth, error) {
	return models.ProviderHealth{IsHealthy: true, LastCheckTimestamp: time.Now()}, nil
}

func (l *LogProvider) SendNotification(_ context.Context, data models.NotificationData) (models.NotificationResult, error) {
	l.logger.Info("notification",
		"provider", l.id,
		"event_type", string(data.EventType),
		"percent", data.Percent,
		"remaining", data.RemainingData,
		"rate", data.Rate,
		"correlation_id", data.CorrelationID,
	)
	return models.NotificationResult{Success: true, ProviderIdentifier: l.id}, nil
}
