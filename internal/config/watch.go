package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher ties a config file to a reload callback, fired either on a
// filesystem write event or on an explicit Reload call (the CLI's SIGHUP
// handler). Grounded on config/manage.go's Start/Reload separation: loading
// is always the same Load call, only the trigger differs.
type Watcher struct {
	path   string
	onLoad func(*NodeConfig)
	log    *logrus.Entry
	fsw    *fsnotify.Watcher
	stop   chan struct{}
}

// NewWatcher starts watching the file at path for changes; onLoad is
// called with the freshly loaded config on every change.
// Load errors are logged and the previous config stays in effect.
func NewWatcher(path string, onLoad func(*NodeConfig), log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	w := &Watcher{path: path, onLoad: onLoad, log: log.WithField("component", "config-watcher"), fsw: fsw, stop: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.Reload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("config watch error")
		case <-w.stop:
			return
		}
	}
}

// Reload re-runs Load and invokes the callback on success; on failure it
// logs and leaves the previously loaded config in effect (spec §6's SIGHUP
// behavior).
func (w *Watcher) Reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.WithError(err).Error("config reload failed, keeping previous configuration")
		return
	}
	w.onLoad(cfg)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.fsw.Close()
}
