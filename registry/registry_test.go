package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engels74/moversentinel/errkind"
	"github.com/engels74/moversentinel/models"
)

func healthyRecord() models.ProviderHealth {
	return models.ProviderHealth{IsHealthy: true}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	if err := r.Register("webhook", "provider-a", healthyRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := r.Register("webhook", "provider-b", healthyRecord())
	if !errkind.Is(err, errkind.InvalidArgument) {
		t.Fatalf("expected InvalidArgument for duplicate id, got %v", err)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := New()
	r.Unregister("absent") // must not panic
	r.Register("webhook", "provider-a", healthyRecord())
	r.Unregister("webhook")
	r.Unregister("webhook")
	if entries := r.GetHealthyEntries(); len(entries) != 0 {
		t.Fatalf("expected no entries after unregister, got %d", len(entries))
	}
}

func TestGetHealthyEntriesPreservesOrderAndFiltersUnhealthy(t *testing.T) {
	r := New()
	r.Register("a", "provider-a", healthyRecord())
	r.Register("b", "provider-b", healthyRecord())
	r.Register("c", "provider-c", healthyRecord())
	r.MarkUnhealthy("b", "boom")

	entries := r.GetHealthyEntries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != "a" || entries[1].ID != "c" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestRecordSuccessClearsFailureState(t *testing.T) {
	r := New()
	r.Register("a", "provider-a", healthyRecord())
	r.MarkForRetry("a", "transient")
	r.MarkForRetry("a", "transient again")
	r.RecordSuccess("a")

	entry, ok := r.Get("a")
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if !entry.Health.IsHealthy {
		t.Fatal("expected healthy after RecordSuccess")
	}
	if entry.Health.ConsecutiveFailures != 0 {
		t.Fatalf("ConsecutiveFailures = %d, want 0", entry.Health.ConsecutiveFailures)
	}
	if entry.Health.LastErrorMessage != "" {
		t.Fatalf("LastErrorMessage = %q, want empty", entry.Health.LastErrorMessage)
	}
}

func TestMarkForRetryKeepsEntryHealthy(t *testing.T) {
	r := New()
	r.Register("a", "provider-a", healthyRecord())
	r.MarkForRetry("a", "transient")

	entries := r.GetHealthyEntries()
	if len(entries) != 1 {
		t.Fatalf("expected entry to remain healthy-eligible, got %d entries", len(entries))
	}
	if entries[0].Health.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", entries[0].Health.ConsecutiveFailures)
	}
}

func TestMarkUnhealthyExcludesFromHealthySet(t *testing.T) {
	r := New()
	r.Register("a", "provider-a", healthyRecord())
	r.MarkUnhealthy("a", "fatal")

	if entries := r.GetHealthyEntries(); len(entries) != 0 {
		t.Fatalf("expected no healthy entries, got %d", len(entries))
	}
	entry, _ := r.Get("a")
	if entry.Health.IsHealthy {
		t.Fatal("expected unhealthy entry")
	}
}

func TestAllIncludesUnhealthyEntriesInRegistrationOrder(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("a", "provider-a", healthyRecord()))
	require.NoError(t, r.Register("b", "provider-b", healthyRecord()))
	r.MarkUnhealthy("a", "boom")

	entries := r.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.False(t, entries[0].Health.IsHealthy)
	assert.True(t, entries[1].Health.IsHealthy)
}
