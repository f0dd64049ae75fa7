package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches the implement-profile file and/or route file named in a
// Config for on-disk writes and invokes a callback, so an operator can
// push a revised profile or route without restarting the gateway. This is
// ambient filesystem convenience around otherwise out-of-scope config
// reload; it never changes wire behaviour on its own.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  logrus.FieldLogger

	mu      sync.Mutex
	paths   map[string]func()
	closeCh chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a Watcher with no paths registered yet.
func NewWatcher(logger logrus.FieldLogger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher: fw,
		logger:  logger.WithField("component", "config_watcher"),
		paths:   make(map[string]func()),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch registers onChange to be called whenever path is written to.
// Directories are watched rather than the bare file, since editors often
// replace a file rather than writing it in place.
func (w *Watcher) Watch(path string, onChange func()) error {
	if path == "" || onChange == nil {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.mu.Lock()
	w.paths[abs] = onChange
	w.mu.Unlock()
	return nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			onChange := w.paths[abs]
			w.mu.Unlock()
			if onChange != nil {
				w.logger.WithField("path", abs).Info("detected change, reloading")
				onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("config watcher error")
		case <-w.closeCh:
			return
		}
	}
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify.Watcher.
func (w *Watcher) Close() error {
	close(w.closeCh)
	<-w.doneCh
	return w.watcher.Close()
}
