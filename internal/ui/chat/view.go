// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/lumi-chat/internal/model"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	if m.state == StatePicker {
		return m.viewPicker()
	}

	var sb strings.Builder
	sb.WriteString(m.viewHeader())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	sb.WriteString("\n")
	sb.WriteString(m.viewStatusBar())
	return sb.String()
}

func (m Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render(m.cfg.App.Name)
	tagline := m.theme.HeaderSubtitle.Render(m.cfg.App.Tagline)
	line := title + "  " + tagline

	if cur := m.sessions.Current(); cur != nil {
		name := runewidth.Truncate(cur.Title, 40, "…")
		line += m.theme.Timestamp.Render("  | " + name)
	}
	return m.theme.Header.Width(m.width).Render(line)
}

func (m Model) viewStatusBar() string {
	var mode string
	if m.cfg.API.UseRealAPI {
		mode = m.theme.StatusLive.Render("LIVE:" + m.cfg.API.PrimaryProvider)
	} else {
		mode = m.theme.StatusDemo.Render("DEMO")
	}

	left := mode
	if m.state == StateThinking {
		left += " " + m.spinner.View() + m.theme.Timestamp.Render("thinking")
	}
	if m.statusMsg != "" {
		left += "  " + m.statusMsg
	}

	help := strings.Join([]string{
		m.theme.ShortcutKey.Render("^N") + m.theme.ShortcutDesc.Render(" new"),
		m.theme.ShortcutKey.Render("^P") + m.theme.ShortcutDesc.Render(" sessions"),
		m.theme.ShortcutKey.Render("^E") + m.theme.ShortcutDesc.Render(" export"),
		m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" quit"),
	}, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(help) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + help)
}

func (m Model) viewPicker() string {
	visible := m.sessions.Sessions()

	var sb strings.Builder
	sb.WriteString(m.theme.HeaderTitle.Render("Conversations"))
	sb.WriteString("\n\n")

	if len(visible) == 0 {
		sb.WriteString(m.theme.Timestamp.Render("No conversations yet. Press esc and start typing."))
	}
	for i, sess := range visible {
		marker := "  "
		style := m.theme.SessionItem
		if i == m.pickerIndex {
			marker = "> "
			style = m.theme.SessionSelected
		}
		pin := ""
		if sess.IsPinned {
			pin = m.theme.SessionPinned.Render(" ★")
		}
		title := runewidth.Truncate(sess.Title, m.width-20, "…")
		sb.WriteString(fmt.Sprintf("%s%s%s %s\n",
			marker,
			style.Render(title),
			pin,
			m.theme.Timestamp.Render(fmt.Sprintf("(%d msgs)", sess.MessageCount())),
		))
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("enter select · p pin · a archive · d delete · esc close"))
	return sb.String()
}

// refreshViewport re-renders the transcript of the current session.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	cur := m.sessions.Current()
	if cur == nil {
		m.viewport.SetContent(m.theme.Timestamp.Render(m.cfg.App.WelcomeMessage))
		return
	}

	var sb strings.Builder
	sb.WriteString(m.theme.Timestamp.Render(m.cfg.App.WelcomeMessage))
	sb.WriteString("\n\n")
	for _, msg := range cur.Messages {
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
}

func (m *Model) renderMessage(msg *model.Message) string {
	ts := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	if msg.Role == model.RoleUser {
		header := m.theme.UserLabel.Render(msg.Role.DisplayName()) + " " + ts
		body := m.theme.UserBubble.Render(msg.Content)
		if len(msg.Attachments) > 0 {
			names := make([]string, 0, len(msg.Attachments))
			for _, att := range msg.Attachments {
				names = append(names, att.Name)
			}
			body += "\n" + m.theme.Timestamp.Render("📎 "+strings.Join(names, ", "))
		}
		return header + "\n" + body + "\n"
	}

	header := m.theme.AssistantLabel.Render(msg.Role.DisplayName()) + " " + ts
	body := msg.Content
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(msg.Content); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	return header + "\n" + body + "\n"
}
