// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index provides a SQLite message index for fast session search.
package index

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/lumi-chat/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

// schema holds one row per message plus one per session title. The
// index is an accelerator: the store remains the source of truth and
// the whole table is rebuilt on every sync.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	content    TEXT NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

CREATE TABLE IF NOT EXISTS titles (
	session_id TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0
);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// =============================================================================
// MESSAGE INDEX
// =============================================================================

// MessageIndex maintains a searchable copy of session content.
type MessageIndex struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the index database at the given path.
func Open(path string) (*MessageIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &MessageIndex{db: db}, nil
}

// Close releases the database handle.
func (idx *MessageIndex) Close() error {
	return idx.db.Close()
}

// Sync replaces the index content with the given sessions.
func (idx *MessageIndex) Sync(sessions []*model.Session) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin sync: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM titles"); err != nil {
		return fmt.Errorf("failed to clear titles: %w", err)
	}

	msgStmt, err := tx.Prepare("INSERT INTO messages (session_id, message_id, content, archived) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer msgStmt.Close()

	titleStmt, err := tx.Prepare("INSERT INTO titles (session_id, title, archived) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer titleStmt.Close()

	for _, sess := range sessions {
		archived := 0
		if sess.IsArchived {
			archived = 1
		}
		if _, err := titleStmt.Exec(sess.ID, sess.Title, archived); err != nil {
			return fmt.Errorf("failed to index title: %w", err)
		}
		for _, msg := range sess.Messages {
			if _, err := msgStmt.Exec(sess.ID, msg.ID, msg.Content, archived); err != nil {
				return fmt.Errorf("failed to index message: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Search returns the ids of non-archived sessions whose title or any
// message content contains the query, case-insensitively. The result
// carries no ordering; callers re-order against the live store.
func (idx *MessageIndex) Search(query string) ([]string, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	rows, err := idx.db.Query(`
		SELECT session_id FROM titles
		WHERE archived = 0 AND lower(title) LIKE ? ESCAPE '\'
		UNION
		SELECT session_id FROM messages
		WHERE archived = 0 AND lower(content) LIKE ? ESCAPE '\'`,
		pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
