package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads configuration when the overlay file changes. It is
// only active in development; elsewhere it is inert and GetConfig returns
// the initial configuration forever.
type Watcher struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	logger    *zap.Logger
	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher creates a configuration watcher over CONFIG_FILE
func NewWatcher(initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		config: initial,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	path := os.Getenv("CONFIG_FILE")
	if initial.Environment != Development || path == "" {
		logger.Info("configuration hot reload disabled",
			zap.String("environment", string(initial.Environment)))
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	w.fsWatcher = fsWatcher

	go w.loop()
	logger.Info("configuration hot reload enabled", zap.String("file", path))
	return w, nil
}

func (w *Watcher) loop() {
	defer w.fsWatcher.Close()

	// Editors often fire several events per save
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.reload)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load()
	if err != nil {
		w.logger.Error("config reload rejected", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = cfg
	callbacks := append([]func(*Config){}, w.callbacks...)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.Int("callbacks", len(callbacks)))
	for _, cb := range callbacks {
		cb(cfg)
	}
}

// OnChange registers a callback invoked after each successful reload
func (w *Watcher) OnChange(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// GetConfig returns the current configuration
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop shuts the watcher down
func (w *Watcher) Stop() {
	if w.fsWatcher != nil {
		close(w.stopCh)
	}
}
