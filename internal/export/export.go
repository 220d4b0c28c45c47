// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders chat sessions to downloadable documents.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/lumi-chat/internal/model"
	"github.com/jeranaias/lumi-chat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNothingToExport is returned when an export has no content: an
// unknown session id or an empty store.
var ErrNothingToExport = errors.New("nothing to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders sessions to one output format.
type Exporter interface {
	// ExportSession renders a single session.
	ExportSession(sess *model.Session) ([]byte, error)

	// ExportAll renders the complete session list, archived included.
	ExportAll(sessions []*model.Session) ([]byte, error)

	// FileExtension returns the output extension (e.g. ".json").
	FileExtension() string

	// MimeType returns the MIME type for HTTP delivery.
	MimeType() string
}

// =============================================================================
// FILE EXPORT
// =============================================================================

// Options configures where exported files land.
type Options struct {
	// OutputDir is the directory where files are saved.
	// Default: current working directory
	OutputDir string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{OutputDir: "."}
}

// now is swappable in tests for deterministic filenames.
var now = time.Now

// ExportSessionToFile renders one session and writes it next to the
// output dir under a name derived from the session title.
func ExportSessionToFile(sess *model.Session, exporter Exporter, opts *Options) (string, error) {
	if sess == nil {
		return "", ErrNothingToExport
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.ExportSession(sess)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return writeExport(opts, Filename(sess.Title, exporter.FileExtension()), content)
}

// ExportAllToFile renders every session into one document.
func ExportAllToFile(sessions []*model.Session, exporter Exporter, opts *Options) (string, error) {
	if len(sessions) == 0 {
		return "", ErrNothingToExport
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.ExportAll(sessions)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return writeExport(opts, Filename("all_chats", exporter.FileExtension()), content)
}

func writeExport(opts *Options, filename string, content []byte) (string, error) {
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// FILENAMES
// =============================================================================

// Filename derives a download name from a session title: every
// non-alphanumeric rune becomes '_' and a millisecond timestamp keeps
// repeated exports from colliding.
func Filename(title, ext string) string {
	return fmt.Sprintf("%s_%d%s", sanitizeFilename(title), now().UnixMilli(), ext)
}

// sanitizeFilename replaces every non-alphanumeric rune with '_'.
func sanitizeFilename(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "chat"
	}
	return sb.String()
}
