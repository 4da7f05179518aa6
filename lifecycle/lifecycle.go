// Package lifecycle polls a mover PID file and turns its appearance and
// disappearance into a lazy sequence of MoverLifecycleEvent, optionally
// sped up by an fsnotify watch on the PID file's parent directory.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/engels74/moversentinel/models"
)

// Monitor polls pidFilePath at pollInterval and emits lifecycle
// transitions. The poll loop is the sole source of truth; an fsnotify
// watcher, when available, only shortens detection latency.
type Monitor struct {
	pidFilePath  string
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	state   models.MoverState
	lastPID int

	events  chan models.MoverLifecycleEvent
	resetCh chan struct{}
}

// New constructs a Monitor in the WAITING state. logger may be nil, in
// which case slog.Default() is used.
func New(pidFilePath string, pollInterval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		pidFilePath:  pidFilePath,
		pollInterval: pollInterval,
		logger:       logger,
		state:        models.StateWaiting,
		events:       make(chan models.MoverLifecycleEvent, 16),
		resetCh:      make(chan struct{}, 1),
	}
}

// Events returns the channel of emitted transitions. Closed when Run
// returns.
func (m *Monitor) Events() <-chan models.MoverLifecycleEvent {
	return m.events
}

// Reset signals that a previously emitted COMPLETED transition has been
// processed by the caller, allowing the monitor to return to WAITING.
// A Reset delivered while the monitor is not COMPLETED is a no-op.
func (m *Monitor) Reset() {
	select {
	case m.resetCh <- struct{}{}:
	default:
	}
}

// State returns the monitor's current lifecycle state.
func (m *Monitor) State() models.MoverState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run polls until ctx is cancelled, emitting transitions on Events(). It
// closes Events() before returning.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.events)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	fastPoll := m.watch(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.resetCh:
			m.mu.Lock()
			if m.state == models.StateCompleted {
				m.state = models.StateWaiting
			}
			m.mu.Unlock()
		case <-ticker.C:
			m.poll()
		case <-fastPoll:
			m.poll()
		}
	}
}

// poll reads the PID file once and advances the state machine. Unreadable
// or missing PID files are treated as absent.
func (m *Monitor) poll() {
	pid, present := readPID(m.pidFilePath)

	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case models.StateWaiting:
		if present {
			m.emit(m.state, models.StateStarted, pid)
			m.state = models.StateStarted
			m.lastPID = pid
		}
	case models.StateStarted:
		if present {
			m.state = models.StateMonitoring // implicit transition, no event
		} else {
			m.emit(m.state, models.StateCompleted, m.lastPID)
			m.state = models.StateCompleted
		}
	case models.StateMonitoring:
		if !present {
			m.emit(m.state, models.StateCompleted, m.lastPID)
			m.state = models.StateCompleted
		}
	case models.StateCompleted:
		// awaiting Reset() from the orchestrator
	}
}

func (m *Monitor) emit(prev, next models.MoverState, pid int) {
	select {
	case m.events <- models.MoverLifecycleEvent{PreviousState: prev, NewState: next, PID: pid}:
	default:
		m.logger.Warn("lifecycle event dropped, channel full", "previous", prev, "next", next)
	}
}

// watch starts an fsnotify watcher on the PID file's parent directory and
// returns a channel that fires on any event targeting the PID file path.
// On any setup error it logs and returns a nil channel, which blocks
// forever in a select and leaves the poll loop as the only signal source.
func (m *Monitor) watch(ctx context.Context) <-chan struct{} {
	dir := parentDir(m.pidFilePath)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.Warn("fsnotify unavailable, falling back to poll-only", "error", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		m.logger.Warn("fsnotify watch failed, falling back to poll-only", "dir", dir, "error", err)
		watcher.Close()
		return nil
	}

	out := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != m.pidFilePath {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Write) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("fsnotify error, continuing on poll loop", "error", werr)
			}
		}
	}()
	return out
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	if idx == 0 {
		return "/"
	}
	return path[:idx]
}

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
