// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat sessions to a single JSON slot file.
//
// The whole session list lives in one document (default
// ~/.lumi/chats.json). Save replaces the file atomically; an empty
// list is never written so a freshly started process cannot wipe a
// previously saved slot. Load is defensive: malformed documents,
// unknown roles, and unparseable timestamps are logged and dropped
// rather than surfaced as errors.
//
// # Key Types
//
//   - SessionStore: reads and writes the slot file
//   - SlotWatcher: fsnotify-based change notifications for the slot
//
// # Usage
//
//	ss, err := storage.NewSessionStore()
//	if err != nil {
//		return err
//	}
//	sessions := ss.Load()
//	// ... mutate ...
//	err = ss.Save(sessions)
package storage
