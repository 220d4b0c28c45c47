// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat sessions to a single JSON document.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/lumi-chat/internal/model"
	"github.com/jeranaias/lumi-chat/internal/util"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// storedSession is the on-disk session shape. Timestamps travel as
// ISO-8601 strings and are reconstructed on load.
type storedSession struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Messages   []storedMessage `json:"messages"`
	IsPinned   bool            `json:"isPinned"`
	IsArchived bool            `json:"isArchived"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

// storedMessage is the on-disk message shape.
type storedMessage struct {
	ID          string             `json:"id"`
	Content     string             `json:"content"`
	Role        string             `json:"role"`
	Timestamp   string             `json:"timestamp"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

// =============================================================================
// SESSION STORE
// =============================================================================

// DefaultFileName is the slot file under the data directory.
const DefaultFileName = "chats.json"

// SessionStore reads and writes the session slot file.
type SessionStore struct {
	// Path is the absolute location of the slot file.
	// Default: ~/.lumi/chats.json
	Path string
}

// NewSessionStore creates a store rooted under the user's home
// directory, creating the data directory if needed.
func NewSessionStore() (*SessionStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewSessionStoreAt(filepath.Join(homeDir, ".lumi", DefaultFileName))
}

// NewSessionStoreAt creates a store for an explicit slot path.
func NewSessionStoreAt(path string) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &SessionStore{Path: path}, nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the slot file and reconstructs sessions. A missing file,
// malformed JSON, or an unreadable slot all yield an empty session
// list; corruption is logged, never propagated. Individual sessions or
// messages that fail reconstruction are dropped, keeping the rest.
func (s *SessionStore) Load() []*model.Session {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("storage: failed to read %s: %v", s.Path, err)
		}
		return nil
	}

	var stored []storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("storage: discarding malformed slot %s: %v", s.Path, err)
		return nil
	}

	var sessions []*model.Session
	for _, st := range stored {
		sess, err := reconstructSession(st)
		if err != nil {
			log.Printf("storage: skipping session %s: %v", st.ID, err)
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions
}

func reconstructSession(st storedSession) (*model.Session, error) {
	if st.ID == "" {
		return nil, fmt.Errorf("missing id")
	}

	createdAt, err := parseTimestamp(st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("bad createdAt: %w", err)
	}
	updatedAt, err := parseTimestamp(st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("bad updatedAt: %w", err)
	}

	sess := &model.Session{
		ID:         st.ID,
		Title:      st.Title,
		IsPinned:   st.IsPinned,
		IsArchived: st.IsArchived,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
	if sess.Title == "" {
		sess.Title = model.DefaultTitle
	}

	for _, sm := range st.Messages {
		msg, err := reconstructMessage(sm)
		if err != nil {
			log.Printf("storage: skipping message %s in session %s: %v", sm.ID, st.ID, err)
			continue
		}
		sess.Messages = append(sess.Messages, msg)
	}
	return sess, nil
}

func reconstructMessage(sm storedMessage) (*model.Message, error) {
	role := model.Role(sm.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", sm.Role)
	}
	ts, err := parseTimestamp(sm.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp: %w", err)
	}
	return &model.Message{
		ID:          sm.ID,
		Content:     sm.Content,
		Role:        role,
		Timestamp:   ts,
		Attachments: sm.Attachments,
	}, nil
}

// parseTimestamp accepts RFC 3339 with or without sub-second precision.
func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the full session list to the slot, replacing any prior
// value. An empty list is never written: a fresh process with no
// hydrated state must not clobber a previously saved slot.
func (s *SessionStore) Save(sessions []*model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	stored := make([]storedSession, 0, len(sessions))
	for _, sess := range sessions {
		stored = append(stored, flattenSession(sess))
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize sessions: %w", err)
	}
	if err := util.AtomicWriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.Path, err)
	}
	return nil
}

func flattenSession(sess *model.Session) storedSession {
	st := storedSession{
		ID:         sess.ID,
		Title:      sess.Title,
		Messages:   make([]storedMessage, 0, len(sess.Messages)),
		IsPinned:   sess.IsPinned,
		IsArchived: sess.IsArchived,
		CreatedAt:  sess.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  sess.UpdatedAt.Format(time.RFC3339Nano),
	}
	for _, msg := range sess.Messages {
		st.Messages = append(st.Messages, storedMessage{
			ID:          msg.ID,
			Content:     msg.Content,
			Role:        string(msg.Role),
			Timestamp:   msg.Timestamp.Format(time.RFC3339Nano),
			Attachments: msg.Attachments,
		})
	}
	return st
}
