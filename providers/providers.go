// Package providers defines the notification provider contract and
// ships two reference implementations: a webhook provider exercising
// the HTTP transport, and a log-only provider useful as a
// zero-dependency default and in tests.
package providers

import (
	"context"

	"github.com/engels74/moversentinel/models"
)

// Provider is the contract every notification backend implements.
type Provider interface {
	// Identifier returns the registry key this provider registers under.
	Identifier() string
	// ValidateConfig reports whether the provider's configuration is
	// usable (parses, required fields set) without making network calls.
	ValidateConfig() error
	// HealthCheck performs a lightweight liveness probe.
	HealthCheck(ctx context.Context) (models.ProviderHealth, error)
	// SendNotification delivers data and reports the outcome.
	SendNotification(ctx context.Context, data models.NotificationData) (models.NotificationResult, error)
}
