// Package watch runs a callback when a set of files changes.
//
// Directories are watched rather than the files themselves, so editors
// that save by renaming a temp file over the original are seen too.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// OnChange is called once the watched files have been quiet for the
// debounce period. It returns the files to watch from then on.
type OnChange func(ctx context.Context) []string

type Watcher struct {
	w        *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	files    map[string]bool
	dirs     map[string]bool
}

// New starts watching paths. Watches are in place when New returns.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		w:        fw,
		debounce: debounce,
		logger:   logger,
		dirs:     map[string]bool{},
	}
	if err := w.set(paths); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// set replaces the watched files, adding and dropping directory watches as
// needed.
func (w *Watcher) set(paths []string) error {
	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range paths {
		p, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		files[p] = true
		dirs[filepath.Dir(p)] = true
	}
	for d := range w.dirs {
		if !dirs[d] {
			_ = w.w.Remove(d)
		}
	}
	for d := range dirs {
		if w.dirs[d] {
			continue
		}
		if err := w.w.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	w.files, w.dirs = files, dirs
	return nil
}

// Run delivers changes to fn until ctx is done. Events arriving while fn
// runs start a new quiet period.
func (w *Watcher) Run(ctx context.Context, fn OnChange) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&relevant == 0 || !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			w.logger.Debug("File changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.set(fn(ctx)); err != nil {
				w.logger.Warn("Failed to update watches", "error", err)
			}
		}
	}
}

// Files lists the watched files.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

func (w *Watcher) Close() error {
	return w.w.Close()
}
