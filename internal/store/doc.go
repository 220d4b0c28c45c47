// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the session state container.
//
// The Store owns every chat session plus the current-session pointer,
// and exposes the full mutation surface the application uses: create,
// delete, pin/archive flag flips, message append, and selection.
// Mutations are serialized by a mutex and reported to a single
// OnChange observer, which the composition root uses to mirror state
// into durable storage.
//
// # Key Types
//
//   - Store: the concurrent state container
//   - NotFoundError: returned by id-taking operations for unknown ids;
//     use errors.Is with ErrSessionNotFound
//
// # Usage
//
//	s := store.New()
//	sess := s.NewSession()
//	s.AppendMessage(sess.ID, model.NewUserMessage("hello"))
//	for _, v := range s.Sessions() {
//		fmt.Println(v.Title)
//	}
package store
