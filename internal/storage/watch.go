package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pomodoro/internal/core/model"
)

const settingsDebounce = 200 * time.Millisecond

// WatchSettings reloads the settings file whenever it changes and hands the
// result to onChange. Editors often replace files instead of writing them, so
// the parent directory is watched. Parse errors are logged and skipped.
func WatchSettings(ctx context.Context, path string, logger *slog.Logger, onChange func(model.Settings)) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					debounce = time.After(settingsDebounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("settings watcher error", "error", err)
			case <-debounce:
				debounce = nil
				settings, err := LoadSettings(path)
				if err != nil {
					logger.Warn("settings reload failed", "path", path, "error", err)
					continue
				}
				logger.Info("settings reloaded", "path", path)
				onChange(settings)
			}
		}
	}()
	return nil
}
