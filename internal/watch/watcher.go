package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ChangeFunc receives the files that changed during one debounce window.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher reports changed files below a root directory.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange ChangeFunc
}

// New creates a Watcher and registers every directory below root.
func New(root string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		debounce: debounce,
		onChange: onChange,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and all directories below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		log.Debug().Str("dir", path).Msg("Watching directory")
		return nil
	})
}

// Run dispatches debounced change batches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			w.onChange(ctx, paths)
		}
	}
}

// handle reacts to a raw event and reports whether it names a file worth
// rebuilding. New directories are watched as they appear.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Renamed away or removed before we looked.
		return false
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(ev.Name); err != nil {
				log.Warn().Err(err).Str("dir", ev.Name).Msg("Failed to watch new directory")
			}
		}
		return false
	}
	return info.Mode().IsRegular()
}
