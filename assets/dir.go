package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Dir serves assets straight from a directory on disk, so edits are visible
// on the next Get. Watch reports which virtual paths changed.
type Dir struct {
	FS
	root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan bool
}

func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Dir{FS: FS{fsys: os.DirFS(root)}, root: root}, nil
}

// Watch calls onChange with the rooted virtual path of every file written,
// created or renamed below the directory, and onError with watcher errors.
// Callbacks run on the watcher goroutine. Calling Watch twice is a no-op.
func (d *Dir) Watch(onChange func(path string), onError func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// fsnotify does not recurse, every directory is added on its own.
	err = filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	d.watcher = watcher
	d.done = make(chan bool)

	go func() {
		watch := watcher
		done := d.done
		for {
			select {
			case <-done:
				return
			case event, ok := <-watch.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if event.Has(fsnotify.Create) {
						watchCreated(watch.Add, event.Name, onError)
					}
					continue
				}
				if p, ok := d.virtualPath(event.Name); ok {
					onChange(p)
				}
			case err, ok := <-watch.Errors:
				if !ok {
					return
				}
				report(onError, err)
			}
		}
	}()
	return nil
}

// watchCreated adds a directory created after Watch started.
func watchCreated(add func(string) error, name string, onError func(error)) {
	if err := add(name); err != nil {
		report(onError, fmt.Errorf("couldn't watch %s: %w", name, err))
	}
}

func report(onError func(error), err error) {
	if onError != nil {
		onError(err)
	}
}

func (d *Dir) virtualPath(name string) (string, bool) {
	rel, err := filepath.Rel(d.root, name)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return "", false
	}
	return Root(filepath.ToSlash(rel)), true
}

// Close stops watching. The directory can still be read afterwards.
func (d *Dir) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.watcher == nil {
		return nil
	}
	d.done <- true
	close(d.done)
	d.done = nil

	err := d.watcher.Close()
	d.watcher = nil
	return err
}
