// Package watch reports changes to a fixed set of files using fsnotify.
// Parent directories are watched so that files replaced by rename, or created
// after the watch starts, are still seen. Bursts of events are debounced into
// a single callback.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Watcher.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of files.
type Watcher struct {
	fw    *fsnotify.Watcher
	files map[string]bool

	// Debounce is how long the files must stay quiet before onChange runs.
	Debounce time.Duration
	Logger   *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// New starts watching the directories that contain paths.
func New(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fw: fw, files: make(map[string]bool, len(paths))}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run calls onChange after every burst of changes to the watched files until
// ctx is done or the watcher is stopped. onChange runs on the Run goroutine,
// so changes made while it runs are folded into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if w.Logger != nil {
				w.Logger.Warn("watch error", "error", err)
			}

		case <-timer.C:
			onChange(ctx)
		}
	}
}

// Stop ends monitoring. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	return w.fw.Close()
}
