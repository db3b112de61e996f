// Package watch re-runs the conversion pipeline when files under a source
// directory change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long the watcher waits for a burst of events on the same
// files to settle.
const Debounce = 200 * time.Millisecond

// Handler reacts to settled changes.
type Handler interface {
	// Accepts reports whether a path relative to the root is a source file.
	Accepts(rel string) bool
	// Process converts the source file at rel again.
	Process(ctx context.Context, rel string) error
	// Remove drops the outputs of a source file that no longer exists.
	Remove(ctx context.Context, rel string) error
}

// EventCallback is called after a handled change. kind is "updated" or
// "deleted".
type EventCallback func(kind string, path string)

type change int

const (
	changed change = iota + 1
	removed
)

// Watch starts an fsnotify watcher on root and feeds settled changes to h
// until ctx is cancelled. New directories are added to the watch list and
// the supported files already in them are processed.
func Watch(ctx context.Context, root string, h Handler, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]change)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(Debounce)
		}
	}
	queue := func(abs string, c change) {
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		if !h.Accepts(rel) {
			return
		}
		pending[rel] = c
		schedule()
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			flush(ctx, h, pending, logger, cb)
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					_ = filepath.WalkDir(ev.Name, func(p string, d fs.DirEntry, err error) error {
						if err == nil && !d.IsDir() {
							queue(p, changed)
						}
						return nil
					})
					continue
				}
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				queue(ev.Name, changed)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// A rename reports the old path only; the new one arrives
				// as a separate Create.
				queue(ev.Name, removed)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func flush(ctx context.Context, h Handler, pending map[string]change, logger *slog.Logger, cb EventCallback) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, rel := range paths {
		var err error
		kind := "updated"
		if pending[rel] == removed {
			kind = "deleted"
			err = h.Remove(ctx, rel)
		} else {
			err = h.Process(ctx, rel)
		}
		if err != nil {
			logger.Warn("watcher: "+kind+" failed", slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("watcher: handled", slog.String("path", rel), slog.String("op", kind))
		if cb != nil {
			cb(kind, rel)
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
