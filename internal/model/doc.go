// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat sessions, messages, and attachments.
//
// # Key Types
//
//   - Session: One conversation thread with its message history, pin/archive
//     flags, and creation/update timestamps
//   - Message: Single immutable message with role, content, timestamp, and
//     optional attachments
//   - Attachment: File metadata attached to a user message
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
// Create a new session and append a message:
//
//	sess := model.NewSession()
//	sess.Append(model.NewUserMessage("Hello!"))
//
// The session title is derived automatically from the first user message,
// truncated to 50 characters with a trailing "…" when longer.
package model
