// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/lumi-chat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders sessions as human-readable Markdown.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// ExportSession implements Exporter.
func (e *MarkdownExporter) ExportSession(sess *model.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is nil")
	}

	var sb strings.Builder
	e.writeSession(&sb, sess)
	return []byte(sb.String()), nil
}

// ExportAll implements Exporter.
func (e *MarkdownExporter) ExportAll(sessions []*model.Session) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# Chat Export\n\n")
	fmt.Fprintf(&sb, "Exported: %s  \n", now().Format(time.RFC3339))
	fmt.Fprintf(&sb, "Total chats: %d\n\n", len(sessions))

	for i, sess := range sessions {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		e.writeSession(&sb, sess)
	}
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeSession(sb *strings.Builder, sess *model.Session) {
	fmt.Fprintf(sb, "## %s\n\n", sess.Title)
	fmt.Fprintf(sb, "Created: %s\n\n", sess.CreatedAt.Format("2006-01-02 15:04"))

	for _, msg := range sess.Messages {
		fmt.Fprintf(sb, "**%s** (%s):\n\n%s\n\n",
			msg.Role.DisplayName(),
			msg.Timestamp.Format("15:04:05"),
			msg.Content,
		)
	}
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}
