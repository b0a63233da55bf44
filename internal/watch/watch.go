// Package watch observes the working tree and the metadata store
// underneath a currently-open Repository State Registry entry and
// reports unexpected external change, e.g. another tool checking out a
// branch or editing implexa.db directly outside this process.
// Multi-writer access isn't supported, but this package makes sure it isn't
// silently corrupted either: it only watches and reports, never
// mutates.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/implexa/implexa/internal/diagnostics"
)

// Watcher observes <repo>/.git/HEAD and <repo>/config/implexa.db for
// changes made by something other than this process.
type Watcher struct {
	fsw       *fsnotify.Watcher
	onChange  func(path string)
	debounce  time.Duration
	mu        sync.Mutex
	lastFired map[string]time.Time
	done      chan struct{}
}

// New starts watching repoPath's .git/HEAD and config/implexa.db.
// onChange is invoked (from the watcher's goroutine) whenever either
// path changes, debounced to at most once per 500ms per path.
func New(repoPath string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	headDir := filepath.Join(repoPath, ".git")
	configDir := filepath.Join(repoPath, "config")
	for _, dir := range []string{headDir, configDir} {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fsw:       fsw,
		onChange:  onChange,
		debounce:  500 * time.Millisecond,
		lastFired: map[string]time.Time{},
		done:      make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isTracked(event.Name) {
				continue
			}
			if w.shouldFire(event.Name) {
				w.onChange(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			diagnostics.Record("watch", "filesystem watcher error", err.Error())
		case <-w.done:
			return
		}
	}
}

func isTracked(path string) bool {
	base := filepath.Base(path)
	return base == "HEAD" || base == "implexa.db"
}

func (w *Watcher) shouldFire(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.lastFired[path]; ok && now.Sub(last) < w.debounce {
		return false
	}
	w.lastFired[path] = now
	return true
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
