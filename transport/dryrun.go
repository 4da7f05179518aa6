package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/engels74/moversentinel/models"
)

// DryRunClient mirrors Client's API but never touches the network: it
// logs the payload and returns a synthetic 204, bypassing retries and
// the circuit breaker entirely.
type DryRunClient struct {
	logger *slog.Logger
}

// NewDryRun constructs a DryRunClient. logger may be nil, in which case
// slog.Default() is used.
func NewDryRun(logger *slog.Logger) *DryRunClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunClient{logger: logger}
}

func (c *DryRunClient) Post(_ context.Context, rawURL string, jsonPayload any, _ time.Duration) (models.Response, error) {
	return c.log(rawURL, jsonPayload)
}

func (c *DryRunClient) PostWithRetry(_ context.Context, rawURL string, jsonPayload any) (models.Response, error) {
	return c.log(rawURL, jsonPayload)
}

func (c *DryRunClient) log(rawURL string, jsonPayload any) (models.Response, error) {
	body, err := json.Marshal(jsonPayload)
	if err != nil {
		body = nil
	}
	c.logger.Info("dry-run http post", "url", rawURL, "payload", string(body))
	return models.Response{Status: 204, Body: nil, Headers: nil}, nil
}
