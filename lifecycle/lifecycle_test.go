package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/engels74/moversentinel/models"
)

func waitEvent(t *testing.T, events <-chan models.MoverLifecycleEvent) models.MoverLifecycleEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lifecycle event")
		return models.MoverLifecycleEvent{}
	}
}

func TestLifecycleStartedThenCompleted(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mover.pid")

	mon := New(pidFile, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	if err := os.WriteFile(pidFile, []byte("4242"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	started := waitEvent(t, mon.Events())
	if started.NewState != models.StateStarted || started.PreviousState != models.StateWaiting {
		t.Fatalf("unexpected first event: %+v", started)
	}
	if started.PID != 4242 {
		t.Fatalf("PID = %d, want 4242", started.PID)
	}

	if err := os.Remove(pidFile); err != nil {
		t.Fatalf("remove pid file: %v", err)
	}

	completed := waitEvent(t, mon.Events())
	if completed.NewState != models.StateCompleted {
		t.Fatalf("unexpected second event: %+v", completed)
	}
	if completed.PID != 4242 {
		t.Fatalf("completed PID = %d, want 4242", completed.PID)
	}

	cancel()
	<-done
}

func TestLifecycleImmediateDisappearanceStillCompletes(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mover.pid")

	mon := New(pidFile, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	if err := os.WriteFile(pidFile, []byte("100"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}
	started := waitEvent(t, mon.Events())
	if started.NewState != models.StateStarted {
		t.Fatalf("unexpected event: %+v", started)
	}

	if err := os.Remove(pidFile); err != nil {
		t.Fatalf("remove pid file: %v", err)
	}
	completed := waitEvent(t, mon.Events())
	if completed.NewState != models.StateCompleted {
		t.Fatalf("expected COMPLETED even on immediate disappearance, got %+v", completed)
	}

	cancel()
	<-done
}

func TestLifecycleResetReturnsToWaiting(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mover.pid")

	mon := New(pidFile, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	os.WriteFile(pidFile, []byte("7"), 0o644)
	waitEvent(t, mon.Events()) // STARTED
	os.Remove(pidFile)
	waitEvent(t, mon.Events()) // COMPLETED

	deadline := time.Now().Add(time.Second)
	for mon.State() != models.StateCompleted && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if mon.State() != models.StateCompleted {
		t.Fatal("expected monitor to settle in COMPLETED")
	}

	mon.Reset()
	deadline = time.Now().Add(time.Second)
	for mon.State() != models.StateWaiting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if mon.State() != models.StateWaiting {
		t.Fatalf("expected WAITING after Reset, got %v", mon.State())
	}

	os.WriteFile(pidFile, []byte("8"), 0o644)
	restarted := waitEvent(t, mon.Events())
	if restarted.NewState != models.StateStarted || restarted.PID != 8 {
		t.Fatalf("unexpected restart event: %+v", restarted)
	}

	cancel()
	<-done
}

func TestLifecycleUnreadablePIDTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mover.pid")
	if err := os.WriteFile(pidFile, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	mon := New(pidFile, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- mon.Run(ctx) }()

	select {
	case ev := <-mon.Events():
		t.Fatalf("unexpected event for unreadable pid file: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	<-done
}
