// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view for the TUI.
//
// The view is a Bubble Tea model composed of a message viewport, a
// text input, and a status bar, plus a session picker overlay. Sends
// run asynchronously through the reply chain; a reply lands as a
// ReplyMsg and is appended to whichever session it was requested for,
// so switching sessions mid-flight never misfiles a reply.
//
// # Key Types
//
//   - Model: the Bubble Tea model (New, Init, Update, View)
//   - ReplyMsg, ReplyErrMsg: async reply results
package chat
