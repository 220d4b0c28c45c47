// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRoleValid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Error("user and assistant roles should be valid")
	}
	if Role("system").Valid() {
		t.Error("unknown role should not be valid")
	}
	if Role("").Valid() {
		t.Error("empty role should not be valid")
	}
}

func TestRoleDisplayName(t *testing.T) {
	if got := RoleUser.DisplayName(); got != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", got)
	}
	if got := RoleAssistant.DisplayName(); got != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q", got)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("message ID should start with 'msg_', got %q", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want user", msg.Role)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if msg.Attachments != nil {
		t.Error("Attachments should be nil by default")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewUserMessage("x").ID
		if seen[id] {
			t.Fatalf("duplicate message ID: %s", id)
		}
		seen[id] = true
	}
}

func TestMessageAttachmentsOmittedFromJSON(t *testing.T) {
	msg := NewUserMessage("hi")
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "attachments") {
		t.Errorf("empty attachments should be omitted: %s", data)
	}

	withFiles := NewUserMessageWithAttachments("hi", []Attachment{
		{ID: "att_1", Name: "notes.txt", Size: 12, Type: "text/plain", URL: "blob:notes"},
	})
	data, _ = json.Marshal(withFiles)
	if !strings.Contains(string(data), `"attachments"`) {
		t.Errorf("attachments should be serialized: %s", data)
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestNewSession(t *testing.T) {
	sess := NewSession()

	if !strings.HasPrefix(sess.ID, "chat_") {
		t.Errorf("session ID should start with 'chat_', got %q", sess.ID)
	}
	if sess.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", sess.Title, DefaultTitle)
	}
	if sess.IsPinned || sess.IsArchived {
		t.Error("flags should be false on a new session")
	}
	if len(sess.Messages) != 0 {
		t.Error("new session should have no messages")
	}
	if sess.CreatedAt.IsZero() || sess.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestSessionAppendDerivesTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short content verbatim", "How do goroutines work?", "How do goroutines work?"},
		{
			"exactly 50 runes verbatim",
			strings.Repeat("a", 50),
			strings.Repeat("a", 50),
		},
		{
			"51 runes truncated with ellipsis",
			strings.Repeat("a", 51),
			strings.Repeat("a", 50) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := NewSession()
			sess.Append(NewUserMessage(tt.content))
			if sess.Title != tt.want {
				t.Errorf("Title = %q, want %q", sess.Title, tt.want)
			}
		})
	}
}

func TestSessionAppendTitleOnlyFromFirstUserMessage(t *testing.T) {
	// First message from the assistant: keep the default title.
	sess := NewSession()
	sess.Append(NewAssistantMessage("Welcome!"))
	if sess.Title != DefaultTitle {
		t.Errorf("Title = %q, want default after assistant-first append", sess.Title)
	}

	// A later user message must not retitle the session.
	sess.Append(NewUserMessage("second message"))
	if sess.Title != DefaultTitle {
		t.Errorf("Title = %q, want default — title derives only from a first user message", sess.Title)
	}
}

func TestSessionAppendRefreshesUpdatedAt(t *testing.T) {
	sess := NewSession()
	before := sess.UpdatedAt

	time.Sleep(2 * time.Millisecond)
	sess.Append(NewUserMessage("hi"))

	if !sess.UpdatedAt.After(before) {
		t.Error("UpdatedAt should be refreshed on append")
	}
}

func TestSessionMatches(t *testing.T) {
	sess := NewSession()
	sess.Append(NewUserMessage("How do I write a Goroutine?"))
	sess.Append(NewAssistantMessage("Use the go keyword."))

	if !sess.Matches("goroutine") {
		t.Error("should match title/content case-insensitively")
	}
	if !sess.Matches("go keyword") {
		t.Error("should match assistant message content")
	}
	if sess.Matches("python") {
		t.Error("should not match absent text")
	}
}

func TestSessionClone(t *testing.T) {
	sess := NewSession()
	sess.Append(NewUserMessage("original"))

	clone := sess.Clone()
	clone.Messages[0].Content = "mutated"
	clone.Title = "changed"

	if sess.Messages[0].Content != "original" {
		t.Error("clone should not share message backing data")
	}
	if sess.Title == "changed" {
		t.Error("clone should not share session fields")
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	sess := NewSession()
	sess.Append(NewUserMessage("persist me"))
	sess.IsPinned = true

	data, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// Field names follow the persisted document schema.
	for _, field := range []string{`"id"`, `"title"`, `"messages"`, `"isPinned"`, `"isArchived"`, `"createdAt"`, `"updatedAt"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("serialized session missing field %s: %s", field, data)
		}
	}

	var loaded Session
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if loaded.ID != sess.ID || loaded.Title != sess.Title || !loaded.IsPinned {
		t.Error("round-trip lost fields")
	}
	if !loaded.CreatedAt.Equal(sess.CreatedAt) {
		t.Errorf("CreatedAt round-trip mismatch: %v != %v", loaded.CreatedAt, sess.CreatedAt)
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].Content != "persist me" {
		t.Error("messages lost in round-trip")
	}
}
