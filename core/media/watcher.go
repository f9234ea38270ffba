package media

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"tunevault/logger"
)

// Watcher observes the media root and logs file create/remove/rename events.
// It exists purely for diagnostics: when the resolver's fallback list starts
// hitting, these logs show which deployment step moved or deleted media out
// from under the configured root.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchMediaRoot starts watching the given directory. The directory must
// already exist. Close stops the watcher and its logging goroutine.
func WatchMediaRoot(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create media watcher: %w", err)
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch media root %s: %w", root, err)
	}

	mw := &Watcher{watcher: w, done: make(chan struct{})}
	go mw.run(root)

	logger.Info("media root watcher started", logger.String("root", root))
	return mw, nil
}

func (w *Watcher) run(root string) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Op&fsnotify.Create != 0:
				logger.Info("media file created", logger.String("path", event.Name))
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				logger.Warn("media file removed or renamed",
					logger.String("path", event.Name),
					logger.String("root", root))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("media watcher error", logger.ErrorField(err))
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
