// Package filewatcher provides file system monitoring adapters.
// Clean Architecture: Adapter implementing ports.FileWatcher.
package filewatcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)

// FSNotifyWatcher watches a documents tree. Subdirectories are watched too,
// including ones created after Watch starts; hidden entries are ignored the
// same way the directory source ignores them.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // lower-case, with dot
}

// NewFSNotifyWatcher creates a watcher reporting files with the given
// extensions (normally the loader's SupportedExtensions).
func NewFSNotifyWatcher(extensions []string) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".markdown", ".pdf", ".html", ".htm"}
	}
	normalized := make([]string, len(extensions))
	for i, e := range extensions {
		normalized[i] = strings.ToLower(e)
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: normalized,
	}, nil
}

// Watch starts monitoring dir and its subdirectories. The channel closes
// when ctx is done or the watcher is stopped.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.addTree(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				fe, ok := w.translate(event)
				if !ok {
					continue
				}
				select {
				case events <- fe:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("file watcher error", "dir", dir, "error", err)
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// translate maps an fsnotify event to a FileEvent. A new directory is
// added to the watch and reported, since files moved in with it raise no
// events of their own.
func (w *FSNotifyWatcher) translate(event fsnotify.Event) (ports.FileEvent, bool) {
	if hidden(filepath.Base(event.Name)) {
		return ports.FileEvent{}, false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("cannot watch new directory", "dir", event.Name, "error", err)
			}
			return ports.FileEvent{Path: event.Name, Operation: ports.FileCreated}, true
		}
	}

	if !w.isWatchedExtension(event.Name) {
		return ports.FileEvent{}, false
	}

	switch {
	case event.Has(fsnotify.Create):
		return ports.FileEvent{Path: event.Name, Operation: ports.FileCreated}, true
	case event.Has(fsnotify.Write):
		return ports.FileEvent{Path: event.Name, Operation: ports.FileModified}, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ports.FileEvent{Path: event.Name, Operation: ports.FileDeleted}, true
	default:
		return ports.FileEvent{}, false
	}
}

func (w *FSNotifyWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	return slices.Contains(w.extensions, strings.ToLower(filepath.Ext(path)))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
