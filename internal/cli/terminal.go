// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the lumi CLI.
package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal. Interactive surfaces (the
// TUI, the REPL) require it.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the stdout width, or a default for pipes.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// =============================================================================
// COLOR OUTPUT
// =============================================================================

var (
	colorOnce   sync.Once
	colorOutput *termenv.Output
)

// Output returns a termenv output honoring NO_COLOR and pipe detection.
func Output() *termenv.Output {
	colorOnce.Do(func() {
		colorOutput = termenv.NewOutput(os.Stdout)
		if !IsStdoutTTY() || os.Getenv("NO_COLOR") != "" {
			colorOutput = termenv.NewOutput(os.Stdout, termenv.WithProfile(termenv.Ascii))
		}
	})
	return colorOutput
}

// highlight renders s in the brand color when the terminal supports it.
func highlight(s string) string {
	return Output().String(s).Foreground(Output().Color("#A78BFA")).Bold().String()
}

// dim renders s muted.
func dim(s string) string {
	return Output().String(s).Faint().String()
}

// errorLine renders s in the error color.
func errorLine(s string) string {
	return Output().String(s).Foreground(Output().Color("#FB7185")).String()
}
