// Package filewatcher provides file system monitoring adapters.
// Adapter implementing ports.FileWatcher.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify. Bursts of
// events for one path are coalesced until the path has been quiet for the
// configured period.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // File extensions to watch (e.g., ".pdf", ".txt")
	quiet      time.Duration
}

var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)

// NewFSNotifyWatcher creates a new file watcher. A zero quiet period emits
// every event as it arrives.
func NewFSNotifyWatcher(extensions []string, quiet time.Duration) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".docx"}
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: extensions,
		quiet:      quiet,
	}, nil
}

type pending struct {
	op    ports.FileOperation
	gen   int
	timer *time.Timer
}

type fired struct {
	path string
	gen  int
}

// Watch starts monitoring the directory and emits events.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)
	fire := make(chan fired, 100)
	log := logger.GetLogger().WithField("dir", dir)

	go func() {
		defer close(events)

		waiting := make(map[string]*pending)
		defer func() {
			for _, p := range waiting {
				p.timer.Stop()
			}
		}()

		emit := func(ev ports.FileEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.isWatchedExtension(event.Name) {
					continue
				}

				var op ports.FileOperation
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					op = ports.FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					op = ports.FileModified
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					op = ports.FileDeleted
				default:
					continue
				}

				if p, ok := waiting[event.Name]; ok && op == ports.FileDeleted {
					p.timer.Stop()
					delete(waiting, event.Name)
				}
				if w.quiet == 0 || op == ports.FileDeleted {
					if !emit(ports.FileEvent{Path: event.Name, Operation: op}) {
						return
					}
					continue
				}

				p, ok := waiting[event.Name]
				if !ok {
					p = &pending{op: op}
					waiting[event.Name] = p
				} else {
					p.timer.Stop()
				}
				// a create followed by writes is still a create
				if op == ports.FileCreated {
					p.op = op
				}
				p.gen++
				path, gen := event.Name, p.gen
				p.timer = time.AfterFunc(w.quiet, func() {
					select {
					case fire <- fired{path: path, gen: gen}:
					case <-ctx.Done():
					}
				})

			case f := <-fire:
				p, ok := waiting[f.path]
				if !ok || p.gen != f.gen {
					continue
				}
				delete(waiting, f.path)
				if !emit(ports.FileEvent{Path: f.path, Operation: p.op}) {
					return
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("file watcher error")
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
