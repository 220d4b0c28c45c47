// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the chat screen. It detects
// the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// Message area
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Timestamp      lipgloss.Style
	UserBubble     lipgloss.Style
	DemoBadge      lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusLive   lipgloss.Style
	StatusDemo   lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Session list
	SessionItem     lipgloss.Style
	SessionSelected lipgloss.Style
	SessionPinned   lipgloss.Style

	// Misc
	Spinner lipgloss.Style
	Error   lipgloss.Style
}

// NewTheme builds the theme for the requested mode ("dark" or "light").
func NewTheme(mode string) *Theme {
	isDark := mode != "light"
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(Text)
	t.DemoBadge = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextMuted).
		Padding(0, 1)
	t.StatusLive = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)
	t.StatusDemo = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(Text)
	t.SessionSelected = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)
	t.SessionPinned = lipgloss.NewStyle().
		Foreground(Amber)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
	t.Error = lipgloss.NewStyle().
		Foreground(Rose)

	return t
}
