package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/registry"
)

func TestModelTracksLifecycleAndProgress(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg, time.Second)

	updated, _ := m.Update(lifecycleMsg(models.MoverLifecycleEvent{
		PreviousState: models.StateWaiting,
		NewState:      models.StateStarted,
	}))
	m = updated.(Model)
	if m.state != models.StateStarted {
		t.Fatalf("state = %v, want STARTED", m.state)
	}

	updated, _ = m.Update(progressMsg(models.ProgressData{Percent: 42.5, MovedBytes: 1024, TotalBytes: 2048}))
	m = updated.(Model)
	if !m.haveProgress || m.progress.Percent != 42.5 {
		t.Fatalf("progress not recorded: %+v", m.progress)
	}

	view := m.View()
	if !strings.Contains(view, "STARTED") {
		t.Fatalf("view missing state: %q", view)
	}
	if !strings.Contains(view, "42.5%") {
		t.Fatalf("view missing percent: %q", view)
	}
}

func TestModelResetsProgressOnReturnToWaiting(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg, time.Second)

	updated, _ := m.Update(progressMsg(models.ProgressData{Percent: 99}))
	m = updated.(Model)
	updated, _ = m.Update(lifecycleMsg(models.MoverLifecycleEvent{NewState: models.StateWaiting}))
	m = updated.(Model)

	if m.haveProgress {
		t.Fatalf("expected progress to be cleared on return to WAITING")
	}
}

func TestModelHealthMsgUpdatesEntries(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg, time.Second)

	entries := []registry.Entry{
		{ID: "webhook", Health: models.ProviderHealth{IsHealthy: true}},
		{ID: "log", Health: models.ProviderHealth{IsHealthy: false, ConsecutiveFailures: 3, LastErrorMessage: "boom"}},
	}
	updated, _ := m.Update(healthMsg(entries))
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "webhook") || !strings.Contains(view, "log") {
		t.Fatalf("view missing provider rows: %q", view)
	}
	if !strings.Contains(view, "boom") {
		t.Fatalf("view missing last error message: %q", view)
	}
}

func TestModelQuitsOnQ(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg, time.Second)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected a quit command")
	}
}
