// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory session state and every mutation
// the rest of the application performs on it.
package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/lumi-chat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

// NotFoundError indicates a session id that is not in the store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// Is supports errors.Is against the ErrSessionNotFound sentinel.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ErrSessionNotFound is the sentinel for errors.Is checks.
var ErrSessionNotFound = &NotFoundError{}

// =============================================================================
// STORE
// =============================================================================

// ChangeFunc observes store mutations. The callback runs with the store
// lock held, so it must not call back into the store.
type ChangeFunc func(sessions []*model.Session)

// Store is the session state container. All methods are safe for
// concurrent use: query methods return deep copies, so callers can read
// (or scribble on) the results while other goroutines mutate the store
// through its methods.
type Store struct {
	mu        sync.Mutex
	sessions  []*model.Session // newest first
	currentID string           // empty when no session is selected
	onChange  ChangeFunc
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NewFromSessions seeds a store from previously persisted sessions.
// The slice is adopted as-is; callers must not retain it.
func NewFromSessions(sessions []*model.Session) *Store {
	s := &Store{sessions: sessions}
	if len(sessions) > 0 {
		s.currentID = sessions[0].ID
	}
	return s
}

// OnChange registers a single observer invoked after every mutation.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// notify must be called with the lock held.
func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange(s.sessions)
	}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// NewSession creates a fresh session, prepends it, and makes it current.
func (s *Store) NewSession() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := model.NewSession()
	s.sessions = append([]*model.Session{sess}, s.sessions...)
	s.currentID = sess.ID
	s.notify()
	return sess.Clone()
}

// Delete removes the session with the given id. When the deleted session
// was current, the selection is cleared.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.currentID == id {
		s.currentID = ""
	}
	s.notify()
	return nil
}

// DeleteAll removes every session and clears the current selection.
func (s *Store) DeleteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	s.currentID = ""
	s.notify()
}

// Pin marks a session as pinned.
func (s *Store) Pin(id string) error { return s.setPinned(id, true) }

// Unpin clears the pinned flag.
func (s *Store) Unpin(id string) error { return s.setPinned(id, false) }

func (s *Store) setPinned(id string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return &NotFoundError{ID: id}
	}
	sess.IsPinned = pinned
	s.notify()
	return nil
}

// Archive marks a session as archived. Archived sessions disappear from
// the visible and pinned views but stay in the store.
func (s *Store) Archive(id string) error { return s.setArchived(id, true) }

// Unarchive returns a session to the visible list.
func (s *Store) Unarchive(id string) error { return s.setArchived(id, false) }

func (s *Store) setArchived(id string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return &NotFoundError{ID: id}
	}
	sess.IsArchived = archived
	s.notify()
	return nil
}

// SetCurrent selects the given session. The id must exist.
func (s *Store) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) == nil {
		return &NotFoundError{ID: id}
	}
	s.currentID = id
	s.notify()
	return nil
}

// ClearCurrent drops the selection without touching any session.
func (s *Store) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentID = ""
	s.notify()
}

// AppendMessage appends a message to the given session. Title derivation
// and UpdatedAt handling live on the session itself.
func (s *Store) AppendMessage(id string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return &NotFoundError{ID: id}
	}
	sess.Append(msg)
	s.notify()
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Current returns the selected session, or nil when nothing is selected.
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentID == "" {
		return nil
	}
	return cloneOf(s.find(s.currentID))
}

// CurrentID returns the selected session id, or "" when none.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Get returns the session with the given id, or nil.
func (s *Store) Get(id string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOf(s.find(id))
}

// Len reports the total number of sessions, archived included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// All returns every session in store order, archived included.
func (s *Store) All() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Sessions returns the visible list: every non-archived session in
// store order.
func (s *Store) Sessions() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Session
	for _, sess := range s.sessions {
		if !sess.IsArchived {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// Pinned returns pinned, non-archived sessions in store order.
func (s *Store) Pinned() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.IsPinned && !sess.IsArchived {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// Archived returns archived sessions in store order.
func (s *Store) Archived() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.IsArchived {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// Search returns non-archived sessions whose title or message content
// contains the query, case-insensitively. The empty query returns all
// non-archived sessions in store order; whitespace is matched literally.
func (s *Store) Search(query string) []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := strings.ToLower(query)

	var out []*model.Session
	for _, sess := range s.sessions {
		if sess.IsArchived {
			continue
		}
		if lower == "" || sess.Matches(lower) {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// =============================================================================
// INTERNAL
// =============================================================================

func cloneOf(sess *model.Session) *model.Session {
	if sess == nil {
		return nil
	}
	return sess.Clone()
}

// find must be called with the lock held.
func (s *Store) find(id string) *model.Session {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}

// indexOf must be called with the lock held.
func (s *Store) indexOf(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}
