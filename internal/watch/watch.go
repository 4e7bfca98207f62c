package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const changeOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename

// File calls fn every time the file at path settles after a change, that is
// once no further change was seen for quiet. The parent directory is watched
// so that files replaced by rename are still picked up. Calls to fn never
// overlap.
func File(ctx context.Context, path string, quiet time.Duration, fn func(ctx context.Context)) (err error) {
	var w *fsnotify.Watcher
	if w, err = fsnotify.NewWatcher(); err != nil {
		err = fmt.Errorf("failed to create watcher: %w", err)
		return
	}
	defer w.Close()

	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err = w.Add(dir); err != nil {
		err = fmt.Errorf("failed to watch %s: %w", dir, err)
		return
	}

	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name || event.Op&changeOps == 0 {
				continue
			}
			zap.L().Debug("watched file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(quiet)
		case werr, ok := <-w.Errors:
			if !ok {
				return
			}
			zap.L().Warn("watcher error", zap.String("dir", dir), zap.Error(werr))
		case <-timer.C:
			fn(ctx)
		}
	}
}
