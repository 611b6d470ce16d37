package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit for one save.
const watchDebounce = 50 * time.Millisecond

// Watch reloads path with FromFile whenever it changes and passes the result
// to fn. The parent directory is watched so atomic rename-on-save editors are
// seen. Setup errors are returned synchronously; afterwards the watch runs in
// its own goroutine until ctx is done. Reload failures are delivered to fn
// with an empty Config.
func Watch(ctx context.Context, path string, fn func(Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(Config{}, fmt.Errorf("watch config: %w", werr))
			case <-fire:
				fire = nil
				cfg, err := FromFile(abs)
				fn(cfg, err)
			}
		}
	}()

	return nil
}
