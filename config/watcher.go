package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs Load on every write to its config file, publishing
// the new Config over Updates(). An invalid reload is logged and
// discarded; the last-known-good Config keeps being served.
type Watcher struct {
	path    string
	logger  *slog.Logger
	updates chan *Config
}

// NewWatcher constructs a Watcher for path. logger may be nil, in which
// case slog.Default() is used.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger, updates: make(chan *Config, 1)}
}

// Updates returns the channel of successfully reloaded configs.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Run watches the config file's parent directory until ctx is
// cancelled. A watcher setup failure is logged and Run returns
// immediately; callers keep serving the config they already loaded.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config hot-reload unavailable", "error", err)
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.Warn("config hot-reload watch failed", "error", err)
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Error("config reload failed, keeping previous config", "error", err)
				continue
			}
			select {
			case w.updates <- cfg:
			default:
				w.logger.Warn("config update dropped, channel full")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
