// Package watch emits debounced change notifications for the registry's
// backing files, driving live views like the dashboard.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher coalesces filesystem events on a set of directories into a single
// notification channel. Bursts of events (editors, link churn) collapse into
// one notification per debounce window.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	// Events receives one value per settled change burst. It is closed when
	// Run returns.
	Events chan struct{}
}

// New creates a Watcher over dirs. Directories that do not exist yet are
// skipped; they can be picked up by recreating the watcher.
func New(debounce time.Duration, dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		// Missing dirs are fine: the marketplace may not be initialized yet.
		_ = fsw.Add(dir)
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		Events:   make(chan struct{}, 1),
	}, nil
}

// Run processes filesystem events until ctx is cancelled, then closes the
// watcher and the Events channel.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-fire:
			select {
			case w.Events <- struct{}{}:
			default: // a notification is already pending
			}

		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			schedule()

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}
