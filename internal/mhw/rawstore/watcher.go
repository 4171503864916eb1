package rawstore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Change describes a file event in the resource directory.
type Change struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
}

// Watcher reports changes to raw and derived files. Loaded data is not
// reloaded; a change only means the next process start will see new data.
type Watcher struct {
	dir     string
	logger  *slog.Logger
	onEvent func(Change)
}

// NewWatcher creates a watcher over the resource directory. onEvent may be nil.
func NewWatcher(dir string, logger *slog.Logger, onEvent func(Change)) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, logger: logger, onEvent: onEvent}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", werr)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".json") {
		return
	}

	change := Change{
		Name:    name,
		Removed: event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename),
	}

	switch {
	case change.Removed:
		w.logger.Info("Resource file removed, it will be rebuilt on next start", "file", name)
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		w.logger.Info("Resource file changed, restart to serve it", "file", name)
	default:
		return
	}

	if w.onEvent != nil {
		w.onEvent(change)
	}
}
