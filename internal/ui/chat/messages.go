// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface and the commands that produce them.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lumi-chat/internal/router"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// ReplyMsg delivers an orchestrated reply for a session.
type ReplyMsg struct {
	SessionID string
	Reply     *router.Reply
}

// ReplyErrMsg signals that the reply chain was aborted (cancellation
// is the only way it fails; provider faults degrade to demo replies).
type ReplyErrMsg struct {
	SessionID string
	Err       error
}

// StatusMsg sets a transient status line.
type StatusMsg string

// =============================================================================
// COMMANDS
// =============================================================================

// sendCmd runs the reply chain off the UI loop. A second send may start
// while one is pending; completions land in request-independent order.
func sendCmd(r *router.Router, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := r.Send(context.Background(), text)
		if err != nil {
			return ReplyErrMsg{SessionID: sessionID, Err: err}
		}
		return ReplyMsg{SessionID: sessionID, Reply: reply}
	}
}
