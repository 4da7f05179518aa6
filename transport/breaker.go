package transport

import (
	"sync"
	"time"

	"github.com/engels74/moversentinel/models"
)

// breakerMap holds one CircuitBreakerState per URL. A single mutex guards
// the whole map; it is held only for each state read or update, never
// across a request, so calls to independent URLs proceed concurrently.
type breakerMap struct {
	mu        sync.Mutex
	byURL     map[string]*models.CircuitBreakerState
	threshold int
}

func newBreakerMap() *breakerMap {
	return &breakerMap{byURL: make(map[string]*models.CircuitBreakerState)}
}

// stateFor returns the breaker state for url, transitioning OPEN to
// HALF_OPEN if the cooldown has elapsed.
func (b *breakerMap) stateFor(url string, cooldown time.Duration) models.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.byURL[url]
	if !ok {
		entry = &models.CircuitBreakerState{State: models.CircuitClosed}
		b.byURL[url] = entry
	}

	if entry.State == models.CircuitOpen && time.Since(entry.LastFailureTime) >= cooldown {
		entry.State = models.CircuitHalfOpen
	}
	return entry.State
}

func (b *breakerMap) recordSuccess(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.byURL[url]
	if !ok {
		entry = &models.CircuitBreakerState{}
		b.byURL[url] = entry
	}
	entry.ConsecutiveFailures = 0
	entry.State = models.CircuitClosed
}

// recordFailure records a failed call against url and reports whether
// this call is what tripped the breaker CLOSED/HALF_OPEN -> OPEN.
func (b *breakerMap) recordFailure(url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.byURL[url]
	if !ok {
		entry = &models.CircuitBreakerState{}
		b.byURL[url] = entry
	}
	entry.ConsecutiveFailures++
	entry.LastFailureTime = time.Now()

	threshold := b.threshold
	if threshold <= 0 {
		threshold = 10
	}

	wasOpen := entry.State == models.CircuitOpen
	switch entry.State {
	case models.CircuitHalfOpen:
		entry.State = models.CircuitOpen
	default:
		if entry.ConsecutiveFailures >= threshold {
			entry.State = models.CircuitOpen
		}
	}
	return !wasOpen && entry.State == models.CircuitOpen
}

// setThreshold configures the consecutive-failure count that trips
// CLOSED -> OPEN. Called once at Client construction.
func (b *breakerMap) setThreshold(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.threshold = n
}
