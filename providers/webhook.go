package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/transport"
)

// WebhookProvider POSTs NotificationData as a JSON payload to a
// configured URL.
type WebhookProvider struct {
	id      string
	url     string
	client  transport.Poster
	timeout time.Duration
}

// NewWebhookProvider constructs a WebhookProvider. timeout bounds the
// health check probe; dispatch-time delivery uses the client's own
// retry/attempt timeouts.
func NewWebhookProvider(id, rawURL string, client transport.Poster, timeout time.Duration) *WebhookProvider {
	return &WebhookProvider{id: id, url: rawURL, client: client, timeout: timeout}
}

func (w *WebhookProvider) Identifier() string { return w.id }

// ValidateConfig checks that the configured URL parses and uses an
// http(s) scheme.
func (w *WebhookProvider) ValidateConfig() error {
	parsed, err := url.ParseRequestURI(w.url)
	if err != nil {
		return errkind.New(errkind.ProviderValidation, "WebhookProvider.ValidateConfig", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errkind.New(errkind.ProviderValidation, "WebhookProvider.ValidateConfig", fmt.Errorf("unsupported scheme %q", parsed.Scheme))
	}
	return nil
}

// HealthCheck issues a lightweight POST carrying a synthetic healthcheck
// marker with a short timeout.
func (w *WebhookProvider) HealthCheck(ctx context.Context) (models.ProviderHealth, error) {
	_, err := w.client.Post(ctx, w.url, map[string]any{"healthcheck": true}, w.timeout)
	if err != nil {
		return models.ProviderHealth{
			IsHealthy:           false,
			ConsecutiveFailures: 1,
			LastCheckTimestamp:  time.Now(),
			LastErrorMessage:    err.Error(),
		}, nil
	}
	return models.ProviderHealth{IsHealthy: true, LastCheckTimestamp: time.Now()}, nil
}

// SendNotification delivers data via PostWithRetry and maps the outcome
// to a NotificationResult.
func (w *WebhookProvider) SendNotification(ctx context.Context, data models.NotificationData) (models.NotificationResult, error) {
	start := time.Now()
	_, err := w.client.PostWithRetry(ctx, w.url, payloadFor(data))
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if err == nil {
		return models.NotificationResult{Success: true, ProviderIdentifier: w.id, DeliveryTimeMS: elapsed}, nil
	}

	shouldRetry := errkind.Is(err, errkind.Timeout) || errkind.Is(err, errkind.Transport) || errkind.Is(err, errkind.CircuitOpen)
	return models.NotificationResult{
		Success:            false,
		ProviderIdentifier: w.id,
		ErrorMessage:       err.Error(),
		DeliveryTimeMS:     elapsed,
		ShouldRetry:        shouldRetry,
	}, nil
}

func payloadFor(data models.NotificationData) map[string]any {
	payload := map[string]any{
		"event_type":     string(data.EventType),
		"percent":        data.Percent,
		"remaining_data": data.RemainingData,
		"moved_data":     data.MovedData,
		"total_data":     data.TotalData,
		"rate":           data.Rate,
		"correlation_id": data.CorrelationID,
	}
	if data.ETCTimestamp != nil {
		payload["etc_timestamp"] = data.ETCTimestamp.Format(time.RFC3339)
	}
	return payload
}
