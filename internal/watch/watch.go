package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"structscope/internal/scan"
)

const DefaultDebounce = 200 * time.Millisecond

// Handler receives one batch of changed absolute paths, sorted and
// deduplicated. It runs on the watcher goroutine; batches never overlap.
type Handler func(ctx context.Context, paths []string)

type Options struct {
	Debounce time.Duration
	// IgnoreDirs are directory base names that are never watched.
	// Nil means scan.DefaultIgnoreDirs.
	IgnoreDirs []string
	Logger     *slog.Logger
}

// Watcher re-runs a handler after bursts of filesystem changes under a root.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	ignore   []string
	log      *slog.Logger

	closeOnce sync.Once
}

func New(root string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.IgnoreDirs == nil {
		opts.IgnoreDirs = scan.DefaultIgnoreDirs
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		root:     abs,
		fsw:      fsw,
		handler:  handler,
		debounce: opts.Debounce,
		ignore:   opts.IgnoreDirs,
		log:      opts.Logger.With("component", "watch"),
	}
	if err := w.addRecursive(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks until ctx is done or the watcher is closed. Pending changes are
// flushed before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		pending = map[string]struct{}{}
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		clear(pending)
		slices.Sort(paths)
		w.log.Debug("watch: flushing changes", "files", len(paths))
		w.handler(ctx, paths)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				flush()
				return nil
			}
			if !w.track(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				flush()
				return nil
			}
			w.log.Warn("watch: notify error", "err", err)
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() { err = w.fsw.Close() })
	return err
}

// track reports whether ev names a file change worth re-analysing. New
// directories are added to the watch set as a side effect.
func (w *Watcher) track(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.log.Warn("watch: add directory", "path", ev.Name, "err", err)
			}
			return false
		}
	}
	return true
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if slices.Contains(w.ignore, filepath.Base(dir)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && slices.Contains(w.ignore, d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
		return nil
	})
}
