package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadCallback receives the freshly loaded config after a change on
// disk.
type ReloadCallback func(*Config)

// Watch monitors the config file and reloads it on change until ctx is
// cancelled. Events are debounced because editors emit write bursts.
// A reload that fails to parse keeps the previous config in effect.
func Watch(ctx context.Context, path string, logger *zap.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: editors replace files via
	// rename, which drops a file-level watch.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger.Info("config watcher started", zap.String("path", path))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(250 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(250 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("config watcher stopped")
			return nil

		case <-reloadCh:
			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload failed, keeping previous", zap.Error(err))
				continue
			}
			logger.Info("config reloaded", zap.String("path", path))
			if cb != nil {
				cb(cfg)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
