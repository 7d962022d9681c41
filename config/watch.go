package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kyleturman/houston/logging"
)

// watchDebounce coalesces the bursts of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

// Watch reloads the config file on changes and invokes onChange with each
// successfully parsed result until ctx is done. Unparseable or invalid edits
// are logged and skipped so the last good config stays active. The parent
// directory is watched rather than the file itself: editors replace files via
// rename, which would otherwise detach the watch.
func Watch(ctx context.Context, path string, logger logging.Logger, onChange func(Config)) error {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	target, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer

		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, err := filepath.Abs(event.Name)
				if err != nil || name != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(watchDebounce, func() {
					cfg, err := Load(path)
					if err != nil {
						logger.Warn("config.reload.failed", "path", path, "error", err.Error())
						return
					}
					logger.Info("config.reloaded", "path", path, "roles", len(cfg.Roles))
					onChange(cfg)
				})

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Keep watching through transient errors
			}
		}
	}()

	return nil
}
