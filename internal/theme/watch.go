package theme

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls Reload whenever a file under the override directory changes.
// It blocks until ctx is cancelled. Watch returns immediately when the theme
// has no override directory.
func (t *Theme) Watch(ctx context.Context, logger *slog.Logger) error {
	if t.dir == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("theme: create watcher: %w", err)
	}
	defer watcher.Close()

	// fsnotify is not recursive; watch the root and the sections directory,
	// adding the latter when it appears later.
	sections := filepath.Join(t.dir, "sections")
	if err := watcher.Add(t.dir); err != nil {
		return fmt.Errorf("theme: watch %s: %w", t.dir, err)
	}
	if info, err := os.Stat(sections); err == nil && info.IsDir() {
		if err := watcher.Add(sections); err != nil {
			return fmt.Errorf("theme: watch %s: %w", sections, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && filepath.Clean(event.Name) == sections {
				if err := watcher.Add(sections); err != nil {
					logger.Warn("template watcher error", "err", err)
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				logger.Debug("template changed", "file", event.Name)
				t.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("template watcher error", "err", err)
		}
	}
}
