package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the flow configuration when its file changes on disk and
// hands the new config to the host. Editors replace files with
// write-then-rename, so the parent directory is watched and events are
// filtered to the config file's name; rapid saves are debounced.
type Watcher struct {
	mu       sync.Mutex
	path     string
	watcher  *fsnotify.Watcher
	log      *zap.Logger
	onReload func(*FlowConfig)

	debounceDur time.Duration
	pending     *time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher builds a watcher for the config file at path. onReload runs on
// the watcher goroutine for every successful reload; the host decides what
// changed (for instance whether the SKU set moved and the catalog fetch
// needs re-arming).
func NewWatcher(path string, log *zap.Logger, onReload func(*FlowConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		path:        path,
		watcher:     fw,
		log:         log,
		onReload:    onReload,
		debounceDur: 250 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs until Stop or
// context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	// running flips only once the directory watch is in place; a failed
	// Add leaves the watcher stopped so Stop stays a no-op.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Unlock()
		return err
	}
	w.running = true
	w.mu.Unlock()
	w.log.Info("watching flow config", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("error closing config watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("config watcher error", zap.Error(err))

		case <-ticker.C:
			w.reloadIfSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	w.log.Debug("flow config changed", zap.String("op", event.Op.String()))

	now := time.Now()
	w.mu.Lock()
	w.pending = &now
	w.mu.Unlock()
}

func (w *Watcher) reloadIfSettled() {
	w.mu.Lock()
	if w.pending == nil || time.Since(*w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = nil
	w.mu.Unlock()

	cfg, err := Load(w.path)
	if err != nil {
		// Keep running with the previous config; a half-saved file will
		// produce another event when the editor finishes.
		w.log.Warn("flow config reload failed", zap.Error(err))
		return
	}
	w.log.Info("flow config reloaded", zap.String("path", w.path))
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
