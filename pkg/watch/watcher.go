// Package watch monitors a watched root for file changes and reports which
// build units changed, for the local rebuild loop.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/imagectl/imagectl/pkg/logging"
)

// Watcher monitors the first-level subdirectories of a root and triggers a
// callback with the set of changed unit names.
type Watcher struct {
	root     string
	onChange func(units []string) error
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for the given root directory on disk.
// onChange receives the changed unit names (debounced, deduplicated, sorted).
func NewWatcher(root string, onChange func(units []string) error) *Watcher {
	return &Watcher{
		root:     root,
		onChange: onChange,
		logger:   logging.NewDiscardLogger(),
		debounce: 500 * time.Millisecond,
	}
}

// SetLogger sets the logger for watcher events.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetDebounce sets the debounce duration for file changes.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Watch starts watching the root and its subdirectories for changes.
// Blocks until the context is cancelled.
//
// The root and each first-level subdirectory are watched individually:
// fsnotify is not recursive, and watching the directories that hold the
// recipe files catches the writes, renames, and atomic editor saves that
// matter for a rebuild.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(w.root, entry.Name())); err != nil {
				w.logger.Warn("could not watch unit directory", "dir", entry.Name(), "error", err)
			}
		}
	}

	w.logger.Info("watching for changes", "root", w.root)

	pending := make(map[string]bool)
	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping watcher")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			unit, ok := w.unitFor(event.Name)
			if !ok {
				// A new unit directory appearing directly in the root gets
				// added to the watch set; its files will report from then on.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("unit changed", "unit", unit, "event", event.Op.String())
				pending[unit] = true

				// Debounce: reset timer on each change
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.NewTimer(w.debounce)
				debounceChan = debounceTimer.C
			}

		case <-debounceChan:
			units := make([]string, 0, len(pending))
			for unit := range pending {
				units = append(units, unit)
			}
			sort.Strings(units)
			pending = make(map[string]bool)

			w.logger.Info("changes detected", "units", units)
			if err := w.onChange(units); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}
			debounceChan = nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// unitFor maps an event path to the first-level unit directory it belongs
// to. Paths directly in the root are not unit changes.
func (w *Watcher) unitFor(eventPath string) (string, bool) {
	rel, err := filepath.Rel(w.root, eventPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	unit, rest, found := strings.Cut(rel, "/")
	if !found || rest == "" {
		return "", false
	}
	return unit, true
}
