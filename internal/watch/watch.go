// Package watch reports changes to a single file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"contractqa/internal/logger"
)

// DefaultDebounce coalesces editors that write a file in several steps.
const DefaultDebounce = 250 * time.Millisecond

// Event reports that the watched file was created or written.
type Event struct {
	Path string
	At   time.Time
}

// Watch delivers an Event after each burst of changes to path until ctx is
// done. The parent directory is watched so that files replaced by rename are
// still observed.
func Watch(ctx context.Context, path string) (<-chan Event, error) {
	return WatchDebounced(ctx, path, DefaultDebounce)
}

// WatchDebounced is Watch with an explicit quiet period.
func WatchDebounced(ctx context.Context, path string, quiet time.Duration) (<-chan Event, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	out := make(chan Event, 1)
	go func() {
		defer close(out)
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
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevant(ev, target) {
					continue
				}
				logger.Debug("watch: %s %s", ev.Op, ev.Name)
				if timer == nil {
					timer = time.NewTimer(quiet)
				} else {
					timer.Reset(quiet)
				}
				fire = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", target, err)
			case at := <-fire:
				fire = nil
				select {
				case out <- Event{Path: target, At: at}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// relevant reports whether ev changes the content of target.
func relevant(ev fsnotify.Event, target string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != target {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)
}
