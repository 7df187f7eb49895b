package gsmon

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher watches the configuration file for on-disk modifications. The
// running configuration stays immutable for the lifetime of the run, so
// observed changes are surfaced as journal events telling the operator a
// restart is needed.
type Watcher struct {
	w    *fsnotify.Watcher
	j    Journaler
	path string
}

// TryWatch attempts to watch the given configuration file asynchronously,
// but it will log into the journaler if, for some reason, it fails to
// watch it.
func TryWatch(ctx context.Context, path string, j Journaler) *Watcher {
	w := &Watcher{j: j, path: path}

	go func() {
		if err := w.init(); err != nil {
			j.Write(&EventWarning{
				Component: "watcher",
				Error:     fmt.Sprintf("not watching config because: %v", err),
			})
			return
		}

		w.watch(ctx)
	}()

	return w
}

func (w *Watcher) init() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}

	// Watch the parent directory; watching the file directly breaks on
	// editors that replace it by rename.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return errors.Wrap(err, "failed to watch config directory")
	}

	w.w = watcher
	return nil
}

func (w *Watcher) watch(ctx context.Context) {
	defer w.w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-w.w.Errors:
			w.j.Write(&EventWarning{
				Component: "watcher",
				Error:     "inotify error: " + err.Error(),
			})

		case evt := <-w.w.Events:
			if filepath.Base(evt.Name) != filepath.Base(w.path) {
				continue
			}

			if op := translateFsnotifyOp(evt.Op); op != "" {
				w.j.Write(&EventConfigModified{Path: w.path, Op: op})
			}
		}
	}
}

func translateFsnotifyOp(op fsnotify.Op) ConfigModifyOp {
	switch {
	case op&(fsnotify.Write|fsnotify.Create) != 0:
		return ConfigModifyUpdate
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// fsnotify does not report renames properly, so a rename is
		// treated like a remove.
		return ConfigModifyRemove
	}

	return ""
}
