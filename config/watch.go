package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/conductor/logger"
	"github.com/sirupsen/logrus"
)

// Watcher reloads a session file whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(SessionConfig)
	log      *logrus.Entry
}

// NewWatcher starts watching path. The parent directory is watched rather than the file so that editors which
// replace the file on save are still picked up. Call Run to start delivering changes.
func NewWatcher(path string, onChange func(SessionConfig)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.WithStackTrace(err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		onChange: onChange,
		log:      logger.GetProjectLogger().WithFields(logrus.Fields{"component": "config", "path": abs}),
	}, nil
}

// Run delivers reloaded configs until ctx is done. Files that fail to load are logged and skipped, so a
// half-written save never replaces a good config.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.log.WithError(err).Warn("Ignoring invalid session config")
				continue
			}
			w.log.Info("Session config reloaded")
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Error("Watch error")
		}
	}
}

// Watch calls fn with the new config each time the session file at path changes, until ctx is done.
func Watch(ctx context.Context, path string, fn func(SessionConfig)) error {
	w, err := NewWatcher(path, fn)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
