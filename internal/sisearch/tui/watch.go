package tui

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// refreshInterval bounds how often file changes trigger an outline refresh.
const refreshInterval = 500 * time.Millisecond

type fileChangedMsg struct {
	path string
}

// docWatcher reports writes to the watched document, at most once per
// refreshInterval.
type docWatcher struct {
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	logger  *log.Logger
	done    chan struct{}
}

func newDocWatcher(logger *log.Logger) (*docWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &docWatcher{
		watcher: watcher,
		limiter: rate.NewLimiter(rate.Every(refreshInterval), 1),
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Watch follows path's directory and calls notify for changes to path.
// Editors that save by rename are covered by watching the directory.
func (w *docWatcher) Watch(path string, notify func(fileChangedMsg)) error {
	if err := w.watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !w.limiter.Allow() {
					continue
				}
				notify(fileChangedMsg{path: target})
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Printf("[watch] %v", err)
			}
		}
	}()
	return nil
}

func (w *docWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
