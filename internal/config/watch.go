package config

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/knadh/koanf/providers/file"
)

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	provider *file.File
	logger   *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// Watch starts watching path. onChange runs on the watcher goroutine with
// the freshly loaded result, or with the load error; callers keep the
// previous config on error.
func Watch(path string, logger *slog.Logger, onChange func(*LoadResult, error)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		path:     path,
		provider: file.Provider(path),
		logger:   logger,
	}
	err := w.provider.Watch(func(_ any, err error) {
		if w.isStopped() {
			return
		}
		if err != nil {
			w.logger.Warn("config watch error", "path", w.path, "err", err)
			return
		}
		res, loadErr := LoadFromPath(w.path)
		onChange(res, loadErr)
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return w, nil
}

// Stop ends the watch. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()
	return w.provider.Unwatch()
}

func (w *Watcher) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}
