// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lumi-chat/internal/export"
	"github.com/jeranaias/lumi-chat/internal/model"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		if m.state == StatePicker {
			return m.updatePicker(msg)
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "ctrl+n":
			m.sessions.NewSession()
			m.statusMsg = "Started a new conversation"
			m.refreshViewport()
		case "ctrl+p":
			m.state = StatePicker
			m.pickerIndex = 0
		case "ctrl+e":
			return m.exportCurrent()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case ReplyMsg:
		if err := m.sessions.AppendMessage(msg.SessionID, model.NewAssistantMessage(msg.Reply.Text)); err != nil {
			// Session deleted while the reply was in flight: drop it.
			m.statusMsg = "Conversation was deleted before the reply arrived"
		}
		m.state = StateReady
		m.refreshViewport()
		m.viewport.GotoBottom()

	case ReplyErrMsg:
		m.state = StateReady
		m.statusMsg = m.theme.Error.Render(fmt.Sprintf("Reply aborted: %v", msg.Err))

	case StatusMsg:
		m.statusMsg = string(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit sends the typed message into the reply chain.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	sessionID := m.currentOrNewSession()
	if err := m.sessions.AppendMessage(sessionID, model.NewUserMessage(text)); err != nil {
		m.statusMsg = m.theme.Error.Render(err.Error())
		return m, nil
	}

	m.input.Reset()
	m.statusMsg = ""
	m.state = StateThinking
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(sendCmd(m.router, sessionID, text), m.spinner.Tick)
}

// exportCurrent writes the selected session as JSON into the working
// directory.
func (m Model) exportCurrent() (tea.Model, tea.Cmd) {
	if !m.cfg.Features.ChatExport {
		m.statusMsg = "Export is disabled in config"
		return m, nil
	}
	cur := m.sessions.Current()
	if cur == nil {
		m.statusMsg = "Nothing to export"
		return m, nil
	}
	path, err := export.ExportSessionToFile(cur, m.exporter(), nil)
	if err != nil {
		m.statusMsg = m.theme.Error.Render(fmt.Sprintf("Export failed: %v", err))
		return m, nil
	}
	m.statusMsg = "Exported to " + path
	return m, nil
}

// updatePicker handles keys while the session picker overlay is open.
func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.sessions.Sessions()

	switch msg.String() {
	case "esc", "ctrl+p", "q":
		m.state = StateReady
	case "up", "k":
		if m.pickerIndex > 0 {
			m.pickerIndex--
		}
	case "down", "j":
		if m.pickerIndex < len(visible)-1 {
			m.pickerIndex++
		}
	case "enter":
		if m.pickerIndex < len(visible) {
			if err := m.sessions.SetCurrent(visible[m.pickerIndex].ID); err == nil {
				m.refreshViewport()
				m.viewport.GotoBottom()
			}
		}
		m.state = StateReady
	case "p":
		if m.pickerIndex < len(visible) {
			sess := visible[m.pickerIndex]
			if sess.IsPinned {
				m.sessions.Unpin(sess.ID)
			} else {
				m.sessions.Pin(sess.ID)
			}
		}
	case "a":
		if m.pickerIndex < len(visible) {
			m.sessions.Archive(visible[m.pickerIndex].ID)
			if m.pickerIndex > 0 {
				m.pickerIndex--
			}
		}
	case "d":
		if m.pickerIndex < len(visible) {
			m.sessions.Delete(visible[m.pickerIndex].ID)
			if m.pickerIndex > 0 {
				m.pickerIndex--
			}
			m.refreshViewport()
		}
	}
	return m, nil
}

// layout recomputes component sizes after a terminal resize.
func (m *Model) layout() {
	headerHeight := 2
	inputHeight := 3
	statusHeight := 1
	vpHeight := m.height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 6
	m.refreshViewport()
	m.viewport.GotoBottom()
}
