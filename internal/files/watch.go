package files

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/webray-editor/internal/scene"
)

// settle lets editors that write in several steps finish before reloading.
const settle = 100 * time.Millisecond

// Watch reloads path into store whenever it changes on disk, until ctx ends.
// The parent directory is watched so that files replaced by rename are
// picked up. A reload that fails to decode is logged and the store keeps
// its document.
func Watch(ctx context.Context, path string, store *scene.Store, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	log.Info("watching scene file", zap.String("path", abs))

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(settle)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("scene watcher error", zap.Error(err))

		case <-timer.C:
			if err := LoadFile(store, abs); err != nil {
				log.Warn("scene reload failed", zap.String("path", abs), zap.Error(err))
				continue
			}
			log.Info("scene reloaded", zap.String("path", abs), zap.Uint64("version", store.Version()))
		}
	}
}
