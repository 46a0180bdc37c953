// Package watcher notices dataset edits on disk so the server can reload
// the graph without a restart. Events are debounced; editors tend to fire
// several writes per save.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Schwaller/graphlens/pkg/logging"
)

// ChangeType distinguishes what kind of file changed.
type ChangeType int

const (
	ChangeDataset ChangeType = iota
	ChangePositions
)

func (t ChangeType) String() string {
	switch t {
	case ChangeDataset:
		return "dataset"
	case ChangePositions:
		return "positions"
	default:
		return "unknown"
	}
}

// ChangeEvent is a batch of file system changes of one type.
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches the dataset and positions files. It watches their
// parent directories rather than the files themselves so atomic
// rename-into-place writes are still seen.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	dataset   string
	positions string
	events    chan ChangeEvent
	closeOnce sync.Once
}

// NewFileWatcher creates a watcher for the given dataset and positions
// paths. The positions path may be empty.
func NewFileWatcher(dataset, positions string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   w,
		dataset:   filepath.Clean(dataset),
		positions: filepath.Clean(positions),
		events:    make(chan ChangeEvent, 100),
	}
	return fw, nil
}

// Start registers the watch directories and begins forwarding events.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := map[string]bool{filepath.Dir(fw.dataset): true}
	if fw.positions != "." {
		dirs[filepath.Dir(fw.positions)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logging.Info("watching for dataset changes", "dataset", fw.dataset)

	go fw.processEvents(ctx)
	return nil
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			fw.Stop()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			var kind ChangeType
			switch filepath.Clean(event.Name) {
			case fw.dataset:
				kind = ChangeDataset
			case fw.positions:
				kind = ChangePositions
			default:
				continue
			}

			select {
			case fw.events <- ChangeEvent{Type: kind, Paths: []string{event.Name}, Timestamp: time.Now()}:
			default:
				logging.Warn("change event dropped, channel full", "path", event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the raw (undebounced) change stream.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop closes the watcher and the event channel.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.closeOnce.Do(func() {
		err = fw.watcher.Close()
		close(fw.events)
	})
	return err
}
