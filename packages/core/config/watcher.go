package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the latest valid configuration of a file. It serves the
// API key to the request executor, so a rotated key is picked up by the
// next call. Invalid rewrites are logged and ignored.
type Watcher struct {
	path    string
	envVars map[string]string
	logger  *slog.Logger
	current atomic.Pointer[Config]
	fs      *fsnotify.Watcher

	// OnReload, if set, is called after every successful reload.
	OnReload func(*Config)
}

// NewWatcher loads path once and prepares to watch it. envVars are
// re-applied on every reload.
func NewWatcher(path string, envVars map[string]string, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config: watcher needs a file path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(abs, envVars)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: creating watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watching %s: %w", abs, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{path: abs, envVars: envVars, logger: logger, fs: fsw}
	w.current.Store(cfg)
	return w, nil
}

// Config returns the latest valid configuration.
func (w *Watcher) Config() *Config {
	return w.current.Load()
}

// APIKey returns the latest configured API key.
func (w *Watcher) APIKey() string {
	return w.current.Load().APIKey
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.reload()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", slog.String("path", w.path), slog.Any("error", err))
		}
	}
}

// Reload re-reads the file now.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path, w.envVars)
	if err != nil {
		return err
	}
	w.current.Store(cfg)
	if w.OnReload != nil {
		w.OnReload(cfg)
	}
	return nil
}

func (w *Watcher) reload() {
	if err := w.Reload(); err != nil {
		w.logger.Warn("config reload failed, keeping previous config",
			slog.String("path", w.path), slog.Any("error", err))
		return
	}
	w.logger.Info("config reloaded", slog.String("path", w.path))
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
