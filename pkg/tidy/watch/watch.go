// Package watch re-runs a callback whenever a directory tree settles after
// a burst of filesystem changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/tidy/pkg/tidy/filter"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/organizer"
)

var log = logging.Get("watch")

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watcher closed")

// Options configures a Watcher.
type Options struct {
	// Ignore holds glob patterns; matching entries neither get watches
	// nor trigger runs.
	Ignore []string

	// Protect lists files and directories whose changes never trigger
	// runs, such as the run log and the history store.
	Protect []string

	// Debounce is how long the tree must stay quiet before a run.
	Debounce time.Duration
}

// Watcher watches a directory tree recursively. Symlinks are not followed.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	ignore   *filter.Filter
	protect  organizer.Protected
	debounce time.Duration

	mu     sync.Mutex
	paths  map[string]bool
	closed bool
}

// New creates a Watcher on root and adds watches for every directory
// beneath it.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}

	ignore, err := filter.New(opts.Ignore)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:     abs,
		fsw:      fsw,
		ignore:   ignore,
		protect:  organizer.NewProtected(opts.Protect...),
		debounce: opts.Debounce,
		paths:    make(map[string]bool),
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched root.
func (w *Watcher) Root() string {
	return w.root
}

// Watched reports whether dir currently has a watch.
func (w *Watcher) Watched(dir string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths[filepath.Clean(dir)]
}

// Run calls fn once, then again every time the tree has been quiet for
// the debounce period after a relevant change. Calls never overlap. Errors
// from fn are logged and the loop continues. Run returns nil when ctx is
// done.
func (w *Watcher) Run(ctx context.Context, fn func() error) error {
	w.invoke(fn)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return ErrClosed
			}
			if !w.handle(event) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			w.invoke(fn)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrClosed
			}
			log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) invoke(fn func() error) {
	if err := fn(); err != nil {
		log.Error("run failed", "root", w.root, "error", err)
	}
}

// handle updates watches for event and reports whether it should trigger
// a run.
func (w *Watcher) handle(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)
	if w.protect.Has(path) {
		return false
	}
	if w.ignored(path) {
		return false
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Lstat(path); err == nil && info.IsDir() {
			if err := w.addTree(path); err != nil {
				log.Warn("failed to watch new directory", "path", path, "error", err)
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.removeTree(path)
	case event.Has(fsnotify.Chmod):
		return false
	}

	log.Debug("change", "path", path, "op", event.Op.String())
	return true
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	return w.ignore.Match(rel)
}

// addTree adds watches for dir and its subdirectories, skipping ignored
// directories and symlinks.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			return nil //nolint:nilerr // unreadable subdirectories are skipped
		}
		if !d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if path != w.root && (w.ignored(path) || w.protect.Has(path)) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		log.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) removeTree(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.fsw.Remove(p)
			delete(w.paths, p)
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
