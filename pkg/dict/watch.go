// CLAUDE:SUMMARY Filesystem watcher that drops compiled rules as soon as the terms file is edited outside the process.
package dict

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch invalidates the engine's cached rules whenever its dictionary file
// changes on disk. It blocks until ctx is done.
//
// The parent directory is watched rather than the file: editors and Save
// replace the file by rename, which ends a watch placed on the old inode.
func (e *Engine) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	path := filepath.Clean(e.store.Path())
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	e.logger.Debug("watching terms file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				e.cache.Forget(e.store.Path())
				e.logger.Debug("terms file changed, rules dropped", "path", path, "op", ev.Op.String())
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("terms watcher error", "error", err)
		}
	}
}
