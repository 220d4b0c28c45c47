// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// SLOT WATCHER
// =============================================================================

// DefaultDebounce coalesces the write+rename burst an atomic save emits.
const DefaultDebounce = 250 * time.Millisecond

// SlotWatcher notifies a callback when the slot file changes on disk,
// e.g. when a second process saves its own sessions. Events are
// debounced so one logical save triggers one callback.
type SlotWatcher struct {
	store    *SessionStore
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()

	mu      sync.Mutex
	pending bool
	last    time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSlotWatcher creates a watcher for the store's slot file. The
// callback runs on the watcher goroutine.
func NewSlotWatcher(store *SessionStore, onChange func()) (*SlotWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &SlotWatcher{
		store:    store,
		watcher:  w,
		debounce: DefaultDebounce,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts delivering change notifications until Close is called.
// The slot's parent directory is watched, not the file itself: atomic
// saves replace the file by rename, which would drop a file-level watch.
func (sw *SlotWatcher) Watch() error {
	if err := sw.watcher.Add(filepath.Dir(sw.store.Path)); err != nil {
		return err
	}
	go sw.processEvents()
	go sw.processPending()
	return nil
}

// Close stops the watcher and releases resources.
func (sw *SlotWatcher) Close() error {
	sw.cancel()
	return sw.watcher.Close()
}

func (sw *SlotWatcher) processEvents() {
	target := filepath.Base(sw.store.Path)
	for {
		select {
		case <-sw.ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			sw.mu.Lock()
			sw.pending = true
			sw.last = time.Now()
			sw.mu.Unlock()
		case _, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event resumes flow.
		}
	}
}

func (sw *SlotWatcher) processPending() {
	ticker := time.NewTicker(sw.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-sw.ctx.Done():
			return
		case <-ticker.C:
			sw.mu.Lock()
			fire := sw.pending && time.Since(sw.last) >= sw.debounce
			if fire {
				sw.pending = false
			}
			sw.mu.Unlock()
			if fire && sw.onChange != nil {
				sw.onChange()
			}
		}
	}
}
