package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"finhealth/internal/observability"
)

const defaultWatchDebounce = 500 * time.Millisecond

// Reloader is what the watcher triggers; *Store implements it
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Watcher reloads the catalog when its file changes. Bursts of events are debounced into one reload.
type Watcher struct {
	path     string
	reloader Reloader
	logger   *observability.Logger
	debounce time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	reloaded chan struct{}
}

// WatcherOption customizes watcher behavior
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce window for reloads
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger for watcher diagnostics
func WithWatchLogger(logger *observability.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger.Component("catalog.watch")
		}
	}
}

// NewWatcher watches path and calls reloader on change
func NewWatcher(path string, reloader Reloader, opts ...WatcherOption) (*Watcher, error) {
	if reloader == nil {
		return nil, errors.New("catalog watcher needs a reloader")
	}
	if path == "" {
		return nil, errors.New("catalog watcher needs a path")
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		reloader: reloader,
		logger:   observability.NopLogger(),
		debounce: defaultWatchDebounce,
		stopCh:   make(chan struct{}),
		reloaded: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the file's directory, so editors that replace the file are seen too.
// The watcher stops when ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		_ = fsWatcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = fsWatcher
	w.mu.Unlock()

	go w.watchLoop(fsWatcher)
	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopCh:
		}
	}()
	w.logger.Info("watching catalog file", "path", w.path)
	return nil
}

// Stop terminates the watcher
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
		w.mu.Unlock()
	})
}

// Reloaded signals after each debounced reload attempt
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded
}

func (w *Watcher) watchLoop(fsWatcher *fsnotify.Watcher) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}
	w.scheduleReload()
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if _, err := w.reloader.Reload(context.Background()); err != nil {
			w.logger.Warn("catalog reload failed, keeping current snapshot", "error", err)
		}
		select {
		case w.reloaded <- struct{}{}:
		default:
		}
	})
}
