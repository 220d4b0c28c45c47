// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/lumi-chat/internal/util"
)

// DefaultTitle is the placeholder title for a session that has no user
// message yet.
const DefaultTitle = "New Conversation"

// TitleMaxRunes is the maximum title length derived from the first user
// message. Longer content is truncated and a "…" is appended.
const TitleMaxRunes = 50

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one chat conversation with its message history and flags.
type Session struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Messages   []*Message `json:"messages"`
	IsPinned   bool       `json:"isPinned"`
	IsArchived bool       `json:"isArchived"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewSession creates a new empty session with a generated ID, the default
// title, both flags cleared, and both timestamps set to now.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        generateSessionID(),
		Title:     DefaultTitle,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the session and refreshes UpdatedAt. If this is
// the first message and its role is user, the session title is derived from
// its content: the first TitleMaxRunes characters, with "…" appended iff the
// content was longer.
func (s *Session) Append(msg *Message) {
	first := len(s.Messages) == 0
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()

	if first && msg.Role == RoleUser {
		s.Title = DeriveTitle(msg.Content)
	}
}

// DeriveTitle computes a session title from message content.
func DeriveTitle(content string) string {
	return util.TruncateEllipsis(content, TitleMaxRunes)
}

// LastMessage returns the most recent message, or nil if empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if there are no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// =============================================================================
// MATCHING
// =============================================================================

// Matches reports whether the lowercased query is a substring of the session
// title or of any message's content. The query must already be lowercased.
func (s *Session) Matches(lowerQuery string) bool {
	if containsFold(s.Title, lowerQuery) {
		return true
	}
	for _, msg := range s.Messages {
		if containsFold(msg.Content, lowerQuery) {
			return true
		}
	}
	return false
}

// containsFold reports whether lowerSub is a substring of s, ignoring case.
// lowerSub must already be lowercased by the caller.
func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

// =============================================================================
// SERIALIZATION HELPERS
// =============================================================================

// Preview returns a short preview of the session for listing.
func (s *Session) Preview(maxLen int) string {
	for _, msg := range s.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(maxLen)
		}
	}
	return ""
}

// Clone creates a deep copy of the session.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]*Message, len(s.Messages))
	for i, msg := range s.Messages {
		msgCopy := *msg
		if msg.Attachments != nil {
			msgCopy.Attachments = make([]Attachment, len(msg.Attachments))
			copy(msgCopy.Attachments, msg.Attachments)
		}
		clone.Messages[i] = &msgCopy
	}
	return &clone
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "chat_" + uuid.NewString()
}
