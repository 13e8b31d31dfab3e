package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Watcher watches a config file for writes and applies the subset of
// its fields that are safe to hot-reload (today: Debug) onto a live
// Config, without restarting the program and without touching anything
// a Backburner has in flight.
//
// Safe for concurrent use; Close is idempotent.
type Watcher struct {
	mu     sync.Mutex
	closed bool

	path string
	cfg  *Config
	fsw  *fsnotify.Watcher
	done chan struct{}

	// warnLimiter caps how often repeated reload/watcher errors are
	// logged, so a misbehaving editor doing rapid partial writes can't
	// flood the log.
	warnLimiter rate.Sometimes
}

// NewWatcher starts watching path's directory (fsnotify watches
// directories, not bare files, so editors that replace-via-rename are
// still observed) and applies changes to cfg as they land.
func NewWatcher(path string, cfg *Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:        path,
		cfg:         cfg,
		fsw:         fsw,
		done:        make(chan struct{}),
		warnLimiter: rate.Sometimes{Interval: 5 * time.Second},
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.warnLimiter.Do(func() {
				slog.Warn("config: watcher error", "error", err)
			})
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.warnLimiter.Do(func() {
			slog.Warn("config: reload failed, keeping previous value", "path", w.path, "error", err)
		})
		return
	}

	var patch struct {
		Debug *bool `json:"debug"`
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		w.warnLimiter.Do(func() {
			slog.Warn("config: reload produced invalid JSON, keeping previous value", "path", w.path, "error", err)
		})
		return
	}
	if patch.Debug == nil {
		return
	}

	w.cfg.SetDebug(*patch.Debug)
	slog.Debug("config: debug flag reloaded", "debug", *patch.Debug)
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fsw.Close()
}
