// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs work whenever a roster file changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change represents one observed change to the watched roster file.
type Change struct {
	// Path is the absolute path of the roster file.
	Path string

	// Op is the type of change.
	Op Op

	// Time is when the change was detected.
	Time time.Time
}

// Op represents the type of file operation.
type Op int

const (
	// OpCreate indicates the file appeared (including editor save-by-rename).
	OpCreate Op = iota

	// OpWrite indicates the file was modified in place.
	OpWrite

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns the string representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called with debounced, deduplicated changes.
type Handler func(changes []Change)

// RosterWatcher watches a single roster file with debouncing.
//
// # Description
//
// Watches the roster's parent directory rather than the file itself:
// most editors save by writing a temporary file and renaming it over the
// original, which silently drops an inode-level watch. Events for other
// files in the directory are filtered out.
//
// # Debouncing
//
// Changes are collected into a buffer. When the debounce window expires
// without new changes, the batch is deduplicated and handed to the
// handler. A save that produces a create+write pair therefore triggers
// the handler once, not twice.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type RosterWatcher struct {
	target   string
	dir      string
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// Options configures the RosterWatcher.
type Options struct {
	// DebounceWindow is how long to wait for more changes before triggering.
	// Default: 250ms
	DebounceWindow time.Duration

	// BufferSize is the size of the change buffer channel.
	// Default: 64
	BufferSize int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		DebounceWindow: 250 * time.Millisecond,
		BufferSize:     64,
	}
}

// NewRosterWatcher creates a watcher for the given roster file.
//
// # Inputs
//
//   - path: Path to the roster file. Must exist when the watcher starts.
//   - handler: Function called with batched changes after debounce.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *RosterWatcher: Ready-to-use watcher (call Start to begin watching).
//   - error: Non-nil if the path cannot be resolved or the watcher
//     could not be created.
//
// # Example
//
//	w, err := watch.NewRosterWatcher("party.yaml", func(changes []watch.Change) {
//	    rerunSearch()
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
func NewRosterWatcher(path string, handler Handler, opts *Options) (*RosterWatcher, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &RosterWatcher{
		target:   abs,
		dir:      filepath.Dir(abs),
		watcher:  watcher,
		handler:  handler,
		debounce: opts.DebounceWindow,
		changes:  make(chan Change, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Target returns the absolute path of the watched roster file.
func (w *RosterWatcher) Target() string {
	return w.target
}

// Start begins watching for changes to the roster file.
//
// Spawns two goroutines, an event filter and a debouncer; both exit when
// Stop is called or the context is cancelled.
func (w *RosterWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil // Already watching
	}
	w.watching = true
	w.mu.Unlock()

	if _, err := os.Stat(w.target); err != nil {
		return fmt.Errorf("roster file not watchable: %w", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *RosterWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *RosterWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// isTarget reports whether an event path refers to the watched roster.
func (w *RosterWatcher) isTarget(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == w.target
}

// processEvents filters fsnotify events down to the roster file and
// forwards them to the debounce channel.
func (w *RosterWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isTarget(event.Name) {
				continue
			}

			change := Change{
				Path: w.target,
				Time: time.Now(),
				Op:   convertOp(event.Op),
			}

			// Non-blocking send; the debouncer normally keeps up and a
			// dropped event within one window changes nothing after dedupe.
			select {
			case w.changes <- change:
			default:
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// convertOp converts fsnotify.Op to Op.
func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

// debounceLoop batches changes and calls the handler after the window.
func (w *RosterWatcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			deduped := deduplicate(batch)
			if len(deduped) > 0 && w.handler != nil {
				w.handler(deduped)
			}
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			flush()
		}
	}
}

// deduplicate keeps the most recent change per path.
func deduplicate(changes []Change) []Change {
	seen := make(map[string]int)
	result := make([]Change, 0, len(changes))

	for _, change := range changes {
		if idx, exists := seen[change.Path]; exists {
			result[idx] = change
		} else {
			seen[change.Path] = len(result)
			result = append(result, change)
		}
	}

	return result
}
