// Package registry tracks notification providers and their health,
// serialized so readers never observe a torn snapshot mid-mutation.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/models"
)

// Entry pairs a registered provider with its current health record.
type Entry struct {
	ID       string
	Provider any
	Health   models.ProviderHealth
}

// Registry maps a unique provider identifier to its provider instance
// and health record, preserving registration order for iteration.
type Registry struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byID: make(map[string]*Entry)}
}

// Register adds provider under id with initialHealth. Fails if id is
// already present.
func (r *Registry) Register(id string, provider any, initialHealth models.ProviderHealth) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return errkind.New(errkind.InvalidArgument, "registry.Register", fmt.Errorf("provider %q already registered", id))
	}
	r.byID[id] = &Entry{ID: id, Provider: provider, Health: initialHealth}
	r.order = append(r.order, id)
	return nil
}

// Unregister removes id. Idempotent: unregistering an absent id is a
// no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// GetHealthyEntries returns all healthy entries in registration order.
func (r *Registry) GetHealthyEntries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		e := r.byID[id]
		if e.Health.IsHealthy {
			out = append(out, *e)
		}
	}
	return out
}

// All returns every registered entry, healthy or not, in registration
// order.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// RecordSuccess marks id healthy, resets its failure streak and clears
// its last error.
func (r *Registry) RecordSuccess(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return
	}
	e.Health.IsHealthy = true
	e.Health.ConsecutiveFailures = 0
	e.Health.LastCheckTimestamp = time.Now()
	e.Health.LastErrorMessage = ""
}

// MarkForRetry records a transient failure for id without removing it
// from the healthy set.
func (r *Registry) MarkForRetry(id string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordFailure(id, errMsg, false)
}

// MarkUnhealthy records a failure for id and excludes it from the
// healthy set until it next succeeds.
func (r *Registry) MarkUnhealthy(id string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordFailure(id, errMsg, true)
}

func (r *Registry) recordFailure(id, errMsg string, unhealthy bool) {
	e, ok := r.byID[id]
	if !ok {
		return
	}
	e.Health.ConsecutiveFailures++
	e.Health.LastErrorMessage = errMsg
	e.Health.LastCheckTimestamp = time.Now()
	if unhealthy {
		e.Health.IsHealthy = false
	}
}

// Get returns the entry for id, if present.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}
