// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/lumi-chat/internal/config"
	"github.com/jeranaias/lumi-chat/internal/export"
	"github.com/jeranaias/lumi-chat/internal/router"
	"github.com/jeranaias/lumi-chat/internal/store"
	"github.com/jeranaias/lumi-chat/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady    State = iota // Ready for input
	StateThinking              // Waiting on the reply chain
	StatePicker                // Session picker overlay
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Collaborators
	cfg      *config.Config
	sessions *store.Store
	router   *router.Router

	// Markdown rendering for assistant replies
	renderer *glamour.TermRenderer

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Session picker overlay
	pickerIndex int

	// Transient status line ("Exported to ...", errors)
	statusMsg string

	ready bool
}

// New creates the chat model. The store should already be hydrated.
func New(cfg *config.Config, sessions *store.Store, r *router.Router) Model {
	theme := styles.NewTheme(cfg.UI.Theme)

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil // fall back to plain text
	}

	return Model{
		state:    StateReady,
		theme:    theme,
		cfg:      cfg,
		sessions: sessions,
		router:   r,
		renderer: renderer,
		input:    input,
		spinner:  sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// currentOrNewSession returns the selected session, creating one when
// nothing is selected.
func (m *Model) currentOrNewSession() string {
	if cur := m.sessions.Current(); cur != nil {
		return cur.ID
	}
	return m.sessions.NewSession().ID
}

// exporter returns the JSON exporter used by the /export command.
func (m *Model) exporter() export.Exporter {
	return export.NewJSONExporter()
}
