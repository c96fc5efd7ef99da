// Package watch rebuilds a project when its sources change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"jsadapt/internal/config"
	"jsadapt/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// RebuildFunc is called with the files that changed since the last call.
type RebuildFunc func(ctx context.Context, changed []string) error

// watchedExts are the file types whose changes trigger a rebuild.
var watchedExts = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".json": true, ".css": true,
}

// Watcher watches the project directory tree and calls its RebuildFunc once
// changes have settled for the debounce interval.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	root        string
	skip        []string // absolute directories never watched
	ignore      map[string]bool
	pending     map[string]time.Time
	debounceDur time.Duration
	rebuild     RebuildFunc
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Rebuilds      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastRebuild   time.Time
}

// New returns a watcher for project p. The output and bundle directories
// are never watched, so writing build results does not retrigger a build.
func New(p *config.Project, rebuild RebuildFunc) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ignore := make(map[string]bool, len(p.Watch.Ignore))
	for _, name := range p.Watch.Ignore {
		ignore[name] = true
	}

	return &Watcher{
		watcher:     watcher,
		root:        p.Dir,
		skip:        []string{p.OutputPath(), p.BundlePath()},
		ignore:      ignore,
		pending:     make(map[string]time.Time),
		debounceDur: p.Watch.GetDebounce(),
		rebuild:     rebuild,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds the project tree to the watcher and starts the event loop in a
// goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Watch("watching %s (%d directories)", w.root, len(w.watcher.WatchList()))

	go w.run(ctx)
	return nil
}

// Stop stops the event loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// skipDir reports whether the directory at path is excluded from watching.
func (w *Watcher) skipDir(path string) bool {
	if path != w.root && (w.ignore[filepath.Base(path)] || strings.HasPrefix(filepath.Base(path), ".")) {
		return true
	}
	for _, s := range w.skip {
		if path == s || strings.HasPrefix(path, s+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.WatchError("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 2
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
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
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(event.Name) {
				_ = w.addTree(event.Name)
			}
			return
		}
	}
	if !w.relevant(event.Name) {
		return
	}

	logging.WatchDebug("%s %s", event.Op, event.Name)
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) relevant(path string) bool {
	if w.skipDir(filepath.Dir(path)) {
		return false
	}
	if filepath.Base(path) == config.FileName {
		return true
	}
	return watchedExts[filepath.Ext(path)]
}

// processSettled rebuilds once no change has been seen for the debounce
// interval.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, t := range w.pending {
		if now.Sub(t) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	sort.Strings(changed)
	w.Trigger(ctx, changed)
}

// Trigger runs a rebuild for the given changes right away.
func (w *Watcher) Trigger(ctx context.Context, changed []string) {
	logging.Watch("rebuilding after %d changes", len(changed))
	err := w.rebuild(ctx, changed)

	w.mu.Lock()
	w.stats.Rebuilds++
	w.stats.LastRebuild = time.Now()
	if err != nil {
		w.stats.Errors++
	}
	w.mu.Unlock()

	if err != nil {
		logging.WatchError("rebuild failed: %v", err)
	}
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
