package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileWatcher watches a set of files and runs a callback once per burst of
// changes. Callbacks never overlap.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	log      zerolog.Logger
	debounce time.Duration

	mu      sync.Mutex
	files   map[string]bool // Absolute paths of interest
	dirs    map[string]bool // Watched parent directories
	timer   *time.Timer
	pending map[string]bool
	run     sync.Mutex
	done    chan struct{}
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounce time.Duration, log zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		log:      log,
		debounce: debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		pending:  make(map[string]bool),
		done:     make(chan struct{}),
	}, nil
}

// Watch adds files to the watch set. Their directories are watched so that
// editors replacing a file by rename are still seen.
func (fw *FileWatcher) Watch(files ...string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		dir := filepath.Dir(absPath)
		if !fw.dirs[dir] {
			if err := fw.watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			fw.dirs[dir] = true
		}
		fw.files[absPath] = true
	}
	return nil
}

// Start dispatches change events until Close. callback receives the changed
// files of one debounced burst in no particular order.
func (fw *FileWatcher) Start(callback func(changed []string)) {
	go func() {
		for {
			select {
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					fw.handleFileChange(event.Name, callback)
				}

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.log.Error().Err(err).Msg("watcher error")

			case <-fw.done:
				return
			}
		}
	}()
}

// handleFileChange restarts the debounce timer for a watched file
func (fw *FileWatcher) handleFileChange(name string, callback func([]string)) {
	absPath, err := filepath.Abs(name)
	if err != nil {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.files[absPath] {
		return
	}
	fw.pending[absPath] = true
	fw.log.Debug().Str("file", absPath).Msg("change detected")

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		changed := make([]string, 0, len(fw.pending))
		for f := range fw.pending {
			changed = append(changed, f)
		}
		fw.pending = make(map[string]bool)
		fw.mu.Unlock()

		fw.run.Lock()
		defer fw.run.Unlock()
		callback(changed)
	})
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	close(fw.done)
	return fw.watcher.Close()
}
