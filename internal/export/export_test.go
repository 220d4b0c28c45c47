// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/lumi-chat/internal/model"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	old := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = old })
	return fixed
}

func sampleSession() *model.Session {
	sess := model.NewSession()
	sess.Append(model.NewUserMessage("What is a slice?"))
	sess.Append(model.NewAssistantMessage("A view over an array."))
	return sess
}

// =============================================================================
// FILENAME TESTS
// =============================================================================

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "Hello_World"},
		{"What is a slice?", "What_is_a_slice_"},
		{"abc123", "abc123"},
		{"???", "___"},
		{"", "chat"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilenameCarriesUniquenessSuffix(t *testing.T) {
	fixed := fixedNow(t)

	got := Filename("My Chat", ".json")
	want := "My_Chat_" + strconv.FormatInt(fixed.UnixMilli(), 10) + ".json"
	if got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

// =============================================================================
// JSON EXPORT TESTS
// =============================================================================

func TestJSONExportSession(t *testing.T) {
	fixedNow(t)
	sess := sampleSession()

	data, err := NewJSONExporter().ExportSession(sess)
	if err != nil {
		t.Fatalf("ExportSession failed: %v", err)
	}

	var doc struct {
		Title      string `json:"title"`
		ExportDate string `json:"exportDate"`
		Messages   []struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			Timestamp string `json:"timestamp"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.Title != sess.Title {
		t.Errorf("title = %q, want %q", doc.Title, sess.Title)
	}
	if doc.ExportDate == "" {
		t.Error("exportDate missing")
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(doc.Messages))
	}
	if doc.Messages[0].Role != "user" || doc.Messages[1].Role != "assistant" {
		t.Error("message roles wrong")
	}
	// Reading copy carries no ids or flags.
	if strings.Contains(string(data), `"id"`) || strings.Contains(string(data), "isPinned") {
		t.Error("single-session export must omit ids and flags")
	}
}

func TestJSONExportAllIncludesArchived(t *testing.T) {
	fixedNow(t)

	active := sampleSession()
	archived := sampleSession()
	archived.IsArchived = true
	archived.IsPinned = true

	data, err := NewJSONExporter().ExportAll([]*model.Session{active, archived})
	if err != nil {
		t.Fatalf("ExportAll failed: %v", err)
	}

	var doc struct {
		ExportDate string `json:"exportDate"`
		TotalChats int    `json:"totalChats"`
		Chats      []struct {
			ID         string `json:"id"`
			IsPinned   bool   `json:"isPinned"`
			IsArchived bool   `json:"isArchived"`
			Messages   []struct {
				ID string `json:"id"`
			} `json:"messages"`
		} `json:"chats"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc.TotalChats != 2 {
		t.Errorf("totalChats = %d, want 2 (archived included)", doc.TotalChats)
	}
	if len(doc.Chats) != 2 {
		t.Fatalf("chats = %d, want 2", len(doc.Chats))
	}
	if !doc.Chats[1].IsArchived || !doc.Chats[1].IsPinned {
		t.Error("backup export must keep flags")
	}
	if doc.Chats[0].ID == "" || doc.Chats[0].Messages[0].ID == "" {
		t.Error("backup export must keep ids")
	}
}

// =============================================================================
// MARKDOWN EXPORT TESTS
// =============================================================================

func TestMarkdownExportSession(t *testing.T) {
	sess := sampleSession()

	data, err := NewMarkdownExporter().ExportSession(sess)
	if err != nil {
		t.Fatalf("ExportSession failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "## "+sess.Title) {
		t.Error("markdown missing title heading")
	}
	if !strings.Contains(out, "**You**") || !strings.Contains(out, "**Assistant**") {
		t.Error("markdown missing role labels")
	}
	if !strings.Contains(out, "A view over an array.") {
		t.Error("markdown missing message content")
	}
}

// =============================================================================
// FILE EXPORT TESTS
// =============================================================================

func TestExportSessionToFile(t *testing.T) {
	dir := t.TempDir()
	sess := sampleSession()

	path, err := ExportSessionToFile(sess, NewJSONExporter(), &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportSessionToFile failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file written to %q, want %q", filepath.Dir(path), dir)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("path = %q, want .json suffix", path)
	}
}

func TestExportNothing(t *testing.T) {
	if _, err := ExportSessionToFile(nil, NewJSONExporter(), nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("nil session: err = %v, want ErrNothingToExport", err)
	}
	if _, err := ExportAllToFile(nil, NewJSONExporter(), nil); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("empty store: err = %v, want ErrNothingToExport", err)
	}
}
