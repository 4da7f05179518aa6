// Package transport implements HTTP delivery for notification providers:
// a one-shot POST, a retrying POST guarded by a per-URL circuit breaker,
// and a dry-run variant that never touches the network.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/telemetry/metrics"
)

// Poster is the interface providers.WebhookProvider depends on, letting
// DryRunClient substitute for Client without the provider knowing.
type Poster interface {
	Post(ctx context.Context, rawURL string, jsonPayload any, timeout time.Duration) (models.Response, error)
	PostWithRetry(ctx context.Context, rawURL string, jsonPayload any) (models.Response, error)
}

// Config tunes the retry and circuit-breaker behavior of a Client.
type Config struct {
	MaxRetries       int           // additional attempts after the first, default 5
	MaxBackoff       time.Duration // cap on exponential backoff, default 30s
	BreakerThreshold int           // consecutive failures before tripping OPEN, default 10
	BreakerCooldown  time.Duration // OPEN -> HALF_OPEN delay, default 60s
	AttemptTimeout   time.Duration // per-attempt wall clock deadline, default 10s
}

// DefaultConfig returns the default retry and breaker tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       5,
		MaxBackoff:       30 * time.Second,
		BreakerThreshold: 10,
		BreakerCooldown:  60 * time.Second,
		AttemptTimeout:   10 * time.Second,
	}
}

// Client is the HTTP transport: one-shot Post and retrying PostWithRetry
// with a per-URL circuit breaker. DryRunClient substitutes for it through
// the Poster interface.
type Client struct {
	http    *http.Client
	cfg     Config
	logger  *slog.Logger
	breaker *breakerMap
	metrics metrics.Provider
}

// New constructs a Client. logger may be nil, in which case
// slog.Default() is used. metricsProvider may be nil, in which case
// breaker trips are discarded.
func New(cfg Config, logger *slog.Logger, metricsProvider metrics.Provider) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsProvider == nil {
		metricsProvider = metrics.NoopProvider{}
	}
	breaker := newBreakerMap()
	breaker.setThreshold(cfg.BreakerThreshold)
	return &Client{
		http:    &http.Client{},
		cfg:     cfg,
		logger:  logger,
		breaker: breaker,
		metrics: metricsProvider,
	}
}

// Post issues a single HTTP POST of jsonPayload to rawURL with the given
// per-attempt timeout, bypassing the circuit breaker and retry policy
// entirely.
func (c *Client) Post(ctx context.Context, rawURL string, jsonPayload any, timeout time.Duration) (models.Response, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return models.Response{}, errkind.New(errkind.MalformedURL, "transport.Post", err)
	}

	body, err := json.Marshal(jsonPayload)
	if err != nil {
		return models.Response{}, errkind.New(errkind.InvalidArgument, "transport.Post", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return models.Response{}, errkind.New(errkind.Transport, "transport.Post", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return models.Response{}, errkind.New(errkind.Timeout, "transport.Post", err)
		}
		return models.Response{}, errkind.New(errkind.Transport, "transport.Post", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Response{}, errkind.New(errkind.Transport, "transport.Post", err)
	}

	return models.Response{Status: resp.StatusCode, Body: respBody, Headers: resp.Header}, nil
}

// PostWithRetry issues jsonPayload to rawURL, consulting and updating the
// per-URL circuit breaker and retrying transient failures with
// exponential backoff, per the configured Config.
func (c *Client) PostWithRetry(ctx context.Context, rawURL string, jsonPayload any) (models.Response, error) {
	var lastErr error
	exp := 0 // backoff exponent; a Retry-After wait does not advance it
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if c.breaker.stateFor(rawURL, c.cfg.BreakerCooldown) == models.CircuitOpen {
			return models.Response{}, errkind.New(errkind.CircuitOpen, "transport.PostWithRetry", fmt.Errorf("circuit open for %s", rawURL))
		}

		resp, err := c.Post(ctx, rawURL, jsonPayload, c.cfg.AttemptTimeout)
		if err == nil && resp.Status >= 200 && resp.Status < 400 {
			c.breaker.recordSuccess(rawURL)
			return resp, nil
		}

		var delay time.Duration
		if err == nil {
			switch {
			case resp.Status == http.StatusTooManyRequests:
				lastErr = errkind.New(errkind.Transport, "transport.PostWithRetry", fmt.Errorf("status %d", resp.Status))
				retryAfter, ok := retryAfterDelay(resp.Headers, c.cfg.MaxBackoff)
				if ok {
					delay = retryAfter
				} else {
					delay = backoffDelay(exp, c.cfg.MaxBackoff, rand.Float64)
					exp++
				}
			case resp.Status >= 500:
				lastErr = errkind.New(errkind.Transport, "transport.PostWithRetry", fmt.Errorf("status %d", resp.Status))
				delay = backoffDelay(exp, c.cfg.MaxBackoff, rand.Float64)
				exp++
			default:
				c.recordFailure(rawURL)
				return models.Response{}, errkind.New(errkind.ClientError, "transport.PostWithRetry", fmt.Errorf("status %d", resp.Status))
			}
		} else {
			lastErr = err
			delay = backoffDelay(exp, c.cfg.MaxBackoff, rand.Float64)
			exp++
		}

		if attempt == c.cfg.MaxRetries {
			break
		}
		if !sleepCtx(ctx, delay) {
			c.recordFailure(rawURL)
			return models.Response{}, ctx.Err()
		}
	}

	c.recordFailure(rawURL)
	return models.Response{}, lastErr
}

// recordFailure updates the circuit breaker for rawURL and reports the
// trip to metrics exactly once, on the call that actually opens it.
func (c *Client) recordFailure(rawURL string) {
	if c.breaker.recordFailure(rawURL) {
		c.metrics.IncCircuitTrip(rawURL)
	}
}

// backoffDelay returns the exponential backoff for 0-indexed attempt n:
// min(2^n, maxBackoff) scaled by a uniform jitter factor in [0.8, 1.2).
// jitter is injected so tests can supply a deterministic source.
func backoffDelay(n int, maxBackoff time.Duration, jitter func() float64) time.Duration {
	base := time.Duration(1) << uint(n) * time.Second
	if base > maxBackoff || base <= 0 {
		base = maxBackoff
	}
	factor := 0.8 + jitter()*0.4
	return time.Duration(float64(base) * factor)
}

func retryAfterDelay(headers map[string][]string, maxBackoff time.Duration) (time.Duration, bool) {
	values := headers["Retry-After"]
	if len(values) == 0 {
		return 0, false
	}
	secs, err := strconv.Atoi(values[0])
	if err != nil || secs < 0 {
		return 0, false
	}
	d := time.Duration(secs) * time.Second
	if d > maxBackoff {
		d = maxBackoff
	}
	return d, true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
