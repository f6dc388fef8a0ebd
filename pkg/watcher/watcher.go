package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/impactlens/impact-analyzer/pkg/logging"
	"github.com/impactlens/impact-analyzer/pkg/model"
)

// ChangeEvent represents a batch of file system changes under the
// watched service directories
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// ServiceWatcher watches discovered service directories and reports
// source-file changes so the analysis can be re-run
type ServiceWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	events     chan ChangeEvent
}

// New creates a watcher over the directories of the given services.
// extensions is the same allow-list used by discovery; events outside
// it are ignored.
func New(services []*model.Service, extensions []string) (*ServiceWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	sw := &ServiceWatcher{
		watcher:    fsWatcher,
		extensions: extensions,
		events:     make(chan ChangeEvent, 100),
	}

	watched := 0
	for _, svc := range services {
		// Watch the service root and every directory that owns files.
		// fsnotify watches are not recursive.
		dirs := map[string]bool{svc.Dir: true}
		for _, f := range svc.Files {
			dirs[filepath.Dir(f)] = true
		}
		for dir := range dirs {
			if err := fsWatcher.Add(dir); err != nil {
				logging.Warn("failed to watch directory", "path", dir, "error", err)
				continue
			}
			watched++
		}
	}

	logging.Info("watching service directories", "count", watched)
	return sw, nil
}

// Start begins forwarding relevant file system events
func (sw *ServiceWatcher) Start(ctx context.Context) {
	go sw.processEvents(ctx)
}

// processEvents filters raw fsnotify events down to source-file changes
func (sw *ServiceWatcher) processEvents(ctx context.Context) {
	defer close(sw.events)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !sw.relevant(event) {
				continue
			}
			logging.Debug("source change detected", "path", event.Name, "op", event.Op.String())
			select {
			case sw.events <- ChangeEvent{Paths: []string{event.Name}, Timestamp: time.Now()}:
			default:
				logging.Warn("watcher event channel full, dropping event")
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}

// relevant keeps write/create/rename/remove events on allow-listed files
func (sw *ServiceWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	ext := filepath.Ext(event.Name)
	for _, allowed := range sw.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Events returns the channel of change events
func (sw *ServiceWatcher) Events() <-chan ChangeEvent {
	return sw.events
}

// Close stops the watcher
func (sw *ServiceWatcher) Close() error {
	return sw.watcher.Close()
}
