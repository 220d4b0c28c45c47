// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/lumi-chat/internal/model"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	ss, err := NewSessionStoreAt(filepath.Join(t.TempDir(), "chats.json"))
	if err != nil {
		t.Fatalf("NewSessionStoreAt failed: %v", err)
	}
	return ss
}

// =============================================================================
// ROUND-TRIP TESTS
// =============================================================================

func TestSaveLoadRoundTrip(t *testing.T) {
	ss := newTestStore(t)

	sess := model.NewSession()
	sess.Append(model.NewUserMessage("How do channels work?"))
	sess.Append(model.NewAssistantMessage("They move values between goroutines."))
	sess.IsPinned = true

	archived := model.NewSession()
	archived.Append(model.NewUserMessage("old thread"))
	archived.IsArchived = true

	if err := ss.Save([]*model.Session{sess, archived}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := ss.Load()
	if len(loaded) != 2 {
		t.Fatalf("Load returned %d sessions, want 2", len(loaded))
	}

	got := loaded[0]
	if got.ID != sess.ID || got.Title != sess.Title || !got.IsPinned {
		t.Error("session fields lost in round-trip")
	}
	if !got.CreatedAt.Equal(sess.CreatedAt) || !got.UpdatedAt.Equal(sess.UpdatedAt) {
		t.Error("timestamps must survive the ISO round-trip exactly")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != model.RoleUser || got.Messages[1].Role != model.RoleAssistant {
		t.Error("roles lost in round-trip")
	}
	if !got.Messages[0].Timestamp.Equal(sess.Messages[0].Timestamp) {
		t.Error("message timestamps lost in round-trip")
	}
	if !loaded[1].IsArchived {
		t.Error("archived flag lost in round-trip")
	}
}

func TestSaveSkipsEmptyList(t *testing.T) {
	ss := newTestStore(t)

	sess := model.NewSession()
	sess.Append(model.NewUserMessage("keep me"))
	if err := ss.Save([]*model.Session{sess}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// An empty save must leave the previous slot content untouched.
	if err := ss.Save(nil); err != nil {
		t.Fatalf("empty Save failed: %v", err)
	}

	loaded := ss.Load()
	if len(loaded) != 1 || loaded[0].ID != sess.ID {
		t.Error("empty save clobbered previously persisted sessions")
	}
}

func TestSaveAttachmentsPersisted(t *testing.T) {
	ss := newTestStore(t)

	sess := model.NewSession()
	sess.Append(model.NewUserMessageWithAttachments("see file", []model.Attachment{
		{ID: "att_1", Name: "log.txt", Size: 42, Type: "text/plain", URL: "blob:log"},
	}))

	if err := ss.Save([]*model.Session{sess}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := ss.Load()
	if len(loaded) != 1 || len(loaded[0].Messages) != 1 {
		t.Fatal("session lost in round-trip")
	}
	atts := loaded[0].Messages[0].Attachments
	if len(atts) != 1 || atts[0].Name != "log.txt" || atts[0].Size != 42 {
		t.Errorf("attachments lost in round-trip: %+v", atts)
	}
}

// =============================================================================
// DEFENSIVE LOAD TESTS
// =============================================================================

func TestLoadMissingFile(t *testing.T) {
	ss := newTestStore(t)
	if got := ss.Load(); got != nil {
		t.Errorf("Load on missing file = %d sessions, want none", len(got))
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	ss := newTestStore(t)
	if err := os.WriteFile(ss.Path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if got := ss.Load(); got != nil {
		t.Errorf("Load on malformed slot = %d sessions, want none", len(got))
	}
}

func TestLoadDropsBadEntriesKeepsGood(t *testing.T) {
	ss := newTestStore(t)

	slot := `[
		{"id":"chat_good","title":"Good","messages":[
			{"id":"msg_1","content":"hi","role":"user","timestamp":"2025-03-01T10:00:00Z"},
			{"id":"msg_2","content":"??","role":"wizard","timestamp":"2025-03-01T10:00:01Z"}
		],"isPinned":false,"isArchived":false,
		 "createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:01Z"},
		{"id":"chat_bad","title":"Bad","messages":[],
		 "isPinned":false,"isArchived":false,
		 "createdAt":"not-a-date","updatedAt":"2025-03-01T10:00:00Z"}
	]`
	if err := os.WriteFile(ss.Path, []byte(slot), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded := ss.Load()
	if len(loaded) != 1 {
		t.Fatalf("Load = %d sessions, want 1 (bad createdAt dropped)", len(loaded))
	}
	sess := loaded[0]
	if sess.ID != "chat_good" {
		t.Errorf("kept session = %q, want chat_good", sess.ID)
	}
	// The invalid-role message is dropped, the valid one kept.
	if len(sess.Messages) != 1 || sess.Messages[0].ID != "msg_1" {
		t.Errorf("messages = %+v, want only msg_1", sess.Messages)
	}
}

func TestLoadRestoresDefaultTitle(t *testing.T) {
	ss := newTestStore(t)
	slot := `[{"id":"chat_x","title":"","messages":[],
		"isPinned":false,"isArchived":false,
		"createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}]`
	if err := os.WriteFile(ss.Path, []byte(slot), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded := ss.Load()
	if len(loaded) != 1 || loaded[0].Title != model.DefaultTitle {
		t.Errorf("empty title should be restored to %q", model.DefaultTitle)
	}
}

func TestLoadAcceptsSecondPrecisionTimestamps(t *testing.T) {
	// Documents written by other tooling may omit sub-second digits.
	ss := newTestStore(t)
	slot := `[{"id":"chat_x","title":"T","messages":[
		{"id":"msg_1","content":"hi","role":"user","timestamp":"2025-03-01T10:00:00+02:00"}],
		"isPinned":false,"isArchived":false,
		"createdAt":"2025-03-01T10:00:00Z","updatedAt":"2025-03-01T10:00:00Z"}]`
	if err := os.WriteFile(ss.Path, []byte(slot), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded := ss.Load()
	if len(loaded) != 1 || len(loaded[0].Messages) != 1 {
		t.Fatal("second-precision timestamps should parse")
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600))
	if !loaded[0].Messages[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", loaded[0].Messages[0].Timestamp, want)
	}
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestSlotWatcherFiresOnSave(t *testing.T) {
	ss := newTestStore(t)

	changed := make(chan struct{}, 1)
	sw, err := NewSlotWatcher(ss, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewSlotWatcher failed: %v", err)
	}
	sw.debounce = 50 * time.Millisecond
	if err := sw.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer sw.Close()

	sess := model.NewSession()
	sess.Append(model.NewUserMessage("external write"))
	if err := ss.Save([]*model.Session{sess}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not observe the slot write")
	}
}
