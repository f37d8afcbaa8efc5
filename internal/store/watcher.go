package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when the board file changes on disk, so a long-running
// front end can re-render after another agtx process (or the user's editor)
// touches it. Bursts of filesystem events are debounced into one signal.
type Watcher struct {
	fsw      *fsnotify.Watcher
	events   chan struct{}
	done     chan struct{}
	debounce time.Duration
}

// NewWatcher watches the board file of an initialized project.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// Watch the directory, not the file: atomic renames replace the inode,
	// and a directory watch survives that.
	if err := fsw.Add(Dir(root)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", Dir(root), err)
	}

	w := &Watcher{
		fsw:      fsw,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		debounce: debounce,
	}
	go w.loop()
	return w, nil
}

// Events delivers one signal per (debounced) board change. The channel holds
// one pending signal; further changes coalesce into it.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != tasksFile {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- struct{}{}:
			default:
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}
