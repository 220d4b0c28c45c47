// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders chat sessions to downloadable documents.
//
// Two formats are provided: JSON (a single-session reading copy and a
// full-fidelity all-sessions backup) and Markdown. Output filenames are
// derived from the session title with non-alphanumeric runes replaced
// by underscores, plus a millisecond suffix for uniqueness.
//
// # Key Types
//
//   - Exporter: the format contract
//   - JSONExporter, MarkdownExporter: concrete formats
//   - ErrNothingToExport: empty store or unknown session
package export
