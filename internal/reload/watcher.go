// Package reload provides chronfile hot-reload: a debounced filesystem
// watcher and the handler that re-applies the configuration.
package reload

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = time.Second

// WatcherConfig configures the chronfile watcher.
type WatcherConfig struct {
	// ConfigPath is the chronfile to watch. The watch is placed on its
	// parent directory so editors that replace the file are still seen.
	ConfigPath string

	// Debounce is the trailing-edge quiet period. Defaults to 1 second.
	Debounce time.Duration

	Logger *slog.Logger
}

func (c WatcherConfig) debounceOrDefault() time.Duration {
	if c.Debounce > 0 {
		return c.Debounce
	}
	return defaultDebounce
}

// Event is one debounced change notification.
type Event struct {
	ConfigPath string
}

// Watcher emits a debounced event after the chronfile changes. A burst
// of writes produces a single event one quiet period after the last.
type Watcher struct {
	cfg    WatcherConfig
	logger *slog.Logger
	fsw    *fsnotify.Watcher
	events chan Event
	stop   chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stopped   chan struct{}
}

// NewWatcher creates a watcher for the given chronfile.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: creating watcher: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		cfg:     cfg,
		logger:  logger,
		fsw:     fsw,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start places the directory watch and begins emitting events. Safe to
// call multiple times; only the first call starts the goroutine.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.cfg.ConfigPath)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("reload: watching %s: %w", dir, err)
	}
	w.startOnce.Do(func() {
		w.started.Store(true)
		w.logger.Info("watching chronfile", "path", w.cfg.ConfigPath)
		go w.run()
	})
	return nil
}

// Stop terminates the watcher. Safe to call multiple times and before
// Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
	_ = w.fsw.Close()
}

func (w *Watcher) run() {
	defer close(w.stopped)

	debounce := w.cfg.debounceOrDefault()
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("chronfile watch error", "error", err)
		case <-timer.C:
			select {
			case w.events <- Event{ConfigPath: w.cfg.ConfigPath}:
			default:
			}
		}
	}
}

// matches reports whether ev is a content-affecting change of the
// watched chronfile itself.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(w.cfg.ConfigPath) {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
}
