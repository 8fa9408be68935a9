package cliconfig

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/logrelay/logrelay/pkg/log"
)

// Tunables are the delivery knobs that may change while the CLI is running.
// The agent set and batch size are fixed at manager construction and are
// deliberately not reloadable.
type Tunables struct {
	Delay   time.Duration
	Retries int
}

// Watcher monitors the config file via fsnotify and pushes updated tunables
// to the delivery loop.
type Watcher struct {
	path     string
	logger   log.Logger
	onChange func(Tunables)

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a watcher for the config file at path. onChange is
// called with the freshly parsed tunables after every debounced change.
func NewWatcher(path string, logger log.Logger, onChange func(Tunables)) *Watcher {
	return &Watcher{path: path, logger: logger, onChange: onChange}
}

// Run watches the config file's directory until the context is done.
// Watching the directory rather than the file survives editors that replace
// the file on save.
func (w *Watcher) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("config watcher: create failed", log.Err(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.logger.Error("config watcher: watch failed", log.String("dir", dir), log.Err(err))
		return
	}

	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher: error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config watcher: reload failed", log.String("path", w.path), log.Err(err))
		return
	}

	var tun Tunables
	if fc.Delay != "" {
		d, err := time.ParseDuration(fc.Delay)
		if err != nil {
			w.logger.Warn("config watcher: invalid delay", log.String("delay", fc.Delay), log.Err(err))
			return
		}
		tun.Delay = d
	}
	tun.Retries = fc.Retries

	w.logger.Info("config reloaded",
		log.Duration("delay", tun.Delay),
		log.Int("retries", tun.Retries))
	w.onChange(tun)
}
