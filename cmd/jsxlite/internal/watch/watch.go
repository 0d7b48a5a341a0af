// Package watch turns file system notifications into debounced batches of
// changed and removed component files.
package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting it.
const DefaultDebounce = 100 * time.Millisecond

// Batch is one settled burst of changes.
type Batch struct {
	Changed []string // created or written, sorted
	Removed []string // removed or renamed away, sorted
}

// Empty reports whether the batch has nothing to do.
func (b Batch) Empty() bool {
	return len(b.Changed) == 0 && len(b.Removed) == 0
}

// Collect folds events into a batch. The last event for a path wins, so a
// file that is removed and recreated counts as changed.
func Collect(events []fsnotify.Event) Batch {
	last := make(map[string]fsnotify.Op)
	for _, ev := range events {
		if ev.Op == fsnotify.Chmod {
			continue
		}
		last[filepath.Clean(ev.Name)] = ev.Op
	}

	var b Batch
	for path, op := range last {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			b.Removed = append(b.Removed, path)
		} else {
			b.Changed = append(b.Changed, path)
		}
	}
	sort.Strings(b.Changed)
	sort.Strings(b.Removed)
	return b
}

// Watcher reports batches of changes below a directory.
type Watcher struct {
	fs       *fsnotify.Watcher
	relevant func(path string) bool
	debounce time.Duration
}

// New watches dir and every directory below it except hidden ones and
// node_modules. relevant filters the files reported.
func New(dir string, relevant func(path string) bool) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fw, relevant: relevant, debounce: DefaultDebounce}
	if err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

// existing returns a create event for every relevant file below dir.
func (w *Watcher) existing(dir string) []fsnotify.Event {
	var events []fsnotify.Event
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && w.relevant(path) {
			events = append(events, fsnotify.Event{Name: path, Op: fsnotify.Create})
		}
		return nil
	})
	return events
}

// Run calls handle with each settled batch until ctx is done or the watcher
// is closed. New directories are watched as they appear.
func (w *Watcher) Run(ctx context.Context, handle func(Batch)) error {
	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	var pending []fsnotify.Event
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Printf("⚠️  Failed to watch %s: %v", event.Name, err)
					}
					// Files may land in the directory before it is watched.
					pending = append(pending, w.existing(event.Name)...)
					debounce.Reset(w.debounce)
					continue
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			pending = append(pending, event)
			debounce.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Println("Watcher error:", err)

		case <-debounce.C:
			if b := Collect(pending); !b.Empty() {
				handle(b)
			}
			pending = nil
		}
	}
}
