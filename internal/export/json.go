// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/lumi-chat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// singleDocument is the single-session export shape: a reading copy,
// trimmed to role/content/timestamp.
type singleDocument struct {
	Title      string            `json:"title"`
	ExportDate string            `json:"exportDate"`
	Messages   []exportedMessage `json:"messages"`
}

type exportedMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// allDocument is the all-sessions export shape: full fidelity including
// ids and flags, so a backup can be restored elsewhere.
type allDocument struct {
	ExportDate string            `json:"exportDate"`
	TotalChats int               `json:"totalChats"`
	Chats      []exportedSession `json:"chats"`
}

type exportedSession struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	IsPinned   bool                  `json:"isPinned"`
	IsArchived bool                  `json:"isArchived"`
	CreatedAt  string                `json:"createdAt"`
	UpdatedAt  string                `json:"updatedAt"`
	Messages   []exportedFullMessage `json:"messages"`
}

type exportedFullMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// JSONExporter renders sessions as JSON documents.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// ExportSession implements Exporter.
func (e *JSONExporter) ExportSession(sess *model.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	doc := singleDocument{
		Title:      sess.Title,
		ExportDate: now().Format(time.RFC3339),
		Messages:   make([]exportedMessage, 0, len(sess.Messages)),
	}
	for _, msg := range sess.Messages {
		doc.Messages = append(doc.Messages, exportedMessage{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp.Format(time.RFC3339),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ExportAll implements Exporter. Archived sessions are included: the
// document is a complete backup, not a view.
func (e *JSONExporter) ExportAll(sessions []*model.Session) ([]byte, error) {
	doc := allDocument{
		ExportDate: now().Format(time.RFC3339),
		TotalChats: len(sessions),
		Chats:      make([]exportedSession, 0, len(sessions)),
	}
	for _, sess := range sessions {
		es := exportedSession{
			ID:         sess.ID,
			Title:      sess.Title,
			IsPinned:   sess.IsPinned,
			IsArchived: sess.IsArchived,
			CreatedAt:  sess.CreatedAt.Format(time.RFC3339),
			UpdatedAt:  sess.UpdatedAt.Format(time.RFC3339),
			Messages:   make([]exportedFullMessage, 0, len(sess.Messages)),
		}
		for _, msg := range sess.Messages {
			es.Messages = append(es.Messages, exportedFullMessage{
				ID:        msg.ID,
				Content:   msg.Content,
				Role:      string(msg.Role),
				Timestamp: msg.Timestamp.Format(time.RFC3339),
			})
		}
		doc.Chats = append(doc.Chats, es)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
