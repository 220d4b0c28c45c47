// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lumi-chat/internal/config"
	"github.com/jeranaias/lumi-chat/internal/router"
	"github.com/jeranaias/lumi-chat/internal/store"
)

func newTestModel() Model {
	cfg := config.Default()
	s := store.New()
	r := router.New(false)
	r.Demo().Delay = 0
	m := New(cfg, s, r)
	m.width = 100
	m.height = 40
	m.layout()
	return m
}

func TestSubmitAppendsUserMessage(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("hello there")

	next, cmd := m.submit()
	nm := next.(Model)

	cur := nm.sessions.Current()
	if cur == nil {
		t.Fatal("submit should create a session when none is current")
	}
	if cur.MessageCount() != 1 || cur.Messages[0].Content != "hello there" {
		t.Error("user message not appended")
	}
	if nm.state != StateThinking {
		t.Error("submit should enter thinking state")
	}
	if cmd == nil {
		t.Error("submit should schedule the reply command")
	}
	if nm.input.Value() != "" {
		t.Error("input should be cleared after submit")
	}
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("   ")

	next, cmd := m.submit()
	nm := next.(Model)

	if nm.sessions.Len() != 0 {
		t.Error("blank input must not create a session")
	}
	if cmd != nil {
		t.Error("blank input must not schedule a send")
	}
}

func TestReplyMsgAppendsAssistantMessage(t *testing.T) {
	m := newTestModel()
	sess := m.sessions.NewSession()

	next, _ := m.Update(ReplyMsg{
		SessionID: sess.ID,
		Reply:     &router.Reply{Text: "the answer", Source: router.SourceDemo},
	})
	nm := next.(Model)

	got := nm.sessions.Get(sess.ID)
	if got.MessageCount() != 1 || got.Messages[0].Content != "the answer" {
		t.Error("assistant reply not appended")
	}
	if nm.state != StateReady {
		t.Error("reply should return to ready state")
	}
}

func TestReplyForDeletedSessionIsDropped(t *testing.T) {
	m := newTestModel()
	sess := m.sessions.NewSession()
	m.sessions.Delete(sess.ID)

	next, _ := m.Update(ReplyMsg{
		SessionID: sess.ID,
		Reply:     &router.Reply{Text: "late", Source: router.SourceDemo},
	})
	nm := next.(Model)

	if nm.sessions.Len() != 0 {
		t.Error("late reply must not resurrect a deleted session")
	}
}

func TestViewShowsBranding(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	nm := next.(Model)

	out := nm.View()
	if !strings.Contains(out, "Lumi AI") {
		t.Error("view missing app name")
	}
}
