package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/engels74/moversentinel/models"
	"github.com/engels74/moversentinel/registry"
)

// Dashboard bridges orchestrator.Observer callbacks into a running
// bubbletea program. Callbacks arrive on the orchestrator's event-loop
// and sampling-loop goroutines and are forwarded via tea.Program.Send,
// which is goroutine-safe.
type Dashboard struct {
	program *tea.Program
}

// NewDashboard constructs a Dashboard over reg, polling provider health
// every refreshInterval.
func NewDashboard(reg *registry.Registry, refreshInterval time.Duration) *Dashboard {
	model := NewModel(reg, refreshInterval)
	return &Dashboard{program: tea.NewProgram(model)}
}

// OnLifecycleEvent implements orchestrator.Observer.
func (d *Dashboard) OnLifecycleEvent(ev models.MoverLifecycleEvent) {
	d.program.Send(lifecycleMsg(ev))
}

// OnProgress implements orchestrator.Observer.
func (d *Dashboard) OnProgress(p models.ProgressData) {
	d.program.Send(progressMsg(p))
}

// Run blocks until the dashboard quits (q, esc or ctrl+c) or Stop is
// called.
func (d *Dashboard) Run() error {
	_, err := d.program.Run()
	return err
}

// Stop requests the dashboard to exit.
func (d *Dashboard) Stop() {
	d.program.Quit()
}
