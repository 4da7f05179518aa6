package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engels74/moversentinel/errkind"
)

// recordingMetrics counts IncCircuitTrip calls per URL so tests can
// assert a trip fires exactly once, not once per subsequent failure.
type recordingMetrics struct {
	mu    sync.Mutex
	trips map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{trips: make(map[string]int)}
}

func (r *recordingMetrics) IncDispatchResult(string, bool)        {}
func (r *recordingMetrics) ObserveDeliveryMS(string, float64)     {}
func (r *recordingMetrics) ObserveSampleBytes(int64)              {}
func (r *recordingMetrics) IncLifecycleTransition(string, string) {}
func (r *recordingMetrics) IncCircuitTrip(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[url]++
}

func (r *recordingMetrics) tripCount(url string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trips[url]
}

func TestPostSuccessfulExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(DefaultConfig(), nil, nil)
	resp, err := c.Post(context.Background(), srv.URL, map[string]string{"a": "b"}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 200 {
		t.Fatalf("Status = %d, want 200", resp.Status)
	}
}

func TestPostMalformedURL(t *testing.T) {
	c := New(DefaultConfig(), nil, nil)
	_, err := c.Post(context.Background(), "not a url", nil, time.Second)
	if !errkind.Is(err, errkind.MalformedURL) {
		t.Fatalf("expected MalformedURL, got %v", err)
	}
}

func TestPostTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(DefaultConfig(), nil, nil)
	_, err := c.Post(context.Background(), srv.URL, nil, 5*time.Millisecond)
	if !errkind.Is(err, errkind.Timeout) {
		t.Fatalf("expected Timeout, got %v", err)
	}
}

func TestPostWithRetrySucceedsAfterServerErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxBackoff = 10 * time.Millisecond
	c := New(cfg, nil, nil)

	resp, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 200 {
		t.Fatalf("Status = %d, want 200", resp.Status)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestPostWithRetryClientErrorNoRetry(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(DefaultConfig(), nil, nil)
	_, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	if !errkind.Is(err, errkind.ClientError) {
		t.Fatalf("expected ClientError, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no retry on 4xx)", attempts)
	}
}

func TestPostWithRetryCircuitOpensAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	cfg.MaxBackoff = time.Millisecond
	cfg.BreakerThreshold = 2
	cfg.BreakerCooldown = time.Hour
	c := New(cfg, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.PostWithRetry(context.Background(), srv.URL, nil); err == nil {
			t.Fatalf("expected error on attempt %d", i)
		}
	}

	_, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	if !errkind.Is(err, errkind.CircuitOpen) {
		t.Fatalf("expected CircuitOpen after threshold failures, got %v", err)
	}
}

func TestPostWithRetryReportsCircuitTripExactlyOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	cfg.MaxBackoff = time.Millisecond
	cfg.BreakerThreshold = 2
	cfg.BreakerCooldown = time.Hour
	m := newRecordingMetrics()
	c := New(cfg, nil, m)

	for i := 0; i < 2; i++ {
		_, err := c.PostWithRetry(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}
	assert.Equal(t, 1, m.tripCount(srv.URL), "breaker should report exactly one trip at threshold")

	_, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.CircuitOpen))
	assert.Equal(t, 1, m.tripCount(srv.URL), "an already-open circuit must not report additional trips")
}

func TestCircuitRecoversAfterCooldown(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	cfg.MaxBackoff = time.Millisecond
	cfg.BreakerThreshold = 1
	cfg.BreakerCooldown = 20 * time.Millisecond
	c := New(cfg, nil, nil)

	fail = true
	_, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	require.Error(t, err)

	_, err = c.PostWithRetry(context.Background(), srv.URL, nil)
	assert.True(t, errkind.Is(err, errkind.CircuitOpen), "circuit must reject before cooldown, got %v", err)

	time.Sleep(30 * time.Millisecond)
	fail = false
	resp, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	require.NoError(t, err, "half-open probe after cooldown must proceed")
	assert.Equal(t, 200, resp.Status)

	// A closed breaker lets the next call through without another cooldown.
	resp, err = c.PostWithRetry(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
}

func TestPostWithRetryHonorsRetryAfter(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(DefaultConfig(), nil, nil)
	start := time.Now()
	resp, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, 2, attempts)
	// Retry-After: 0 must be honored instead of the 1s+ exponential delay.
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPostWithRetryStopsAfterBudgetWithoutTrailingSleep(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	cfg.MaxBackoff = time.Millisecond
	c := New(cfg, nil, nil)

	_, err := c.PostWithRetry(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.Transport))
	assert.Equal(t, 3, attempts, "one initial attempt plus two retries")
}

func TestBackoffDelayCapsAtMax(t *testing.T) {
	noJitter := func() float64 { return 0.5 } // midpoint, factor == 1.0
	got := backoffDelay(10, 5*time.Second, noJitter)
	if got != 5*time.Second {
		t.Fatalf("backoffDelay = %v, want capped at 5s", got)
	}
}

func TestBackoffDelayExponential(t *testing.T) {
	noJitter := func() float64 { return 0.5 }
	got := backoffDelay(2, time.Minute, noJitter)
	if got != 4*time.Second {
		t.Fatalf("backoffDelay(2) = %v, want 4s", got)
	}
}

func TestBackoffDelayJitterBounds(t *testing.T) {
	jitters := []float64{0, 0.25, 0.5, 0.75, 1}
	for n := 0; n < 5; n++ {
		base := time.Duration(1) << uint(n) * time.Second
		lo := time.Duration(float64(base)*0.8) - time.Millisecond
		hi := time.Duration(float64(base)*1.2) + time.Millisecond
		for _, j := range jitters {
			jv := j
			got := backoffDelay(n, time.Minute, func() float64 { return jv })
			if got < lo || got > hi {
				t.Fatalf("backoffDelay(%d, jitter=%v) = %v, want within [%v, %v]", n, jv, got, lo, hi)
			}
		}
	}
}

func TestDryRunClientNeverHitsNetwork(t *testing.T) {
	c := NewDryRun(nil)
	resp, err := c.PostWithRetry(context.Background(), "http://example.invalid/webhook", map[string]string{"x": "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 204 {
		t.Fatalf("Status = %d, want 204", resp.Status)
	}
}
