// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a local HTTP API over the session store.
//
// Endpoints:
//   - GET    /health                        - Health check
//   - GET    /v1/sessions                   - List sessions (visible; ?view=archived|pinned|all)
//   - POST   /v1/sessions                   - Create a session
//   - DELETE /v1/sessions                   - Delete all sessions
//   - GET    /v1/sessions/{id}              - Fetch one session
//   - DELETE /v1/sessions/{id}              - Delete one session
//   - POST   /v1/sessions/{id}/messages     - Send a message, get the orchestrated reply
//   - POST   /v1/sessions/{id}/pin          - Pin (and unpin, archive, unarchive, select)
//   - GET    /v1/search?q=...               - Search sessions
//   - GET    /v1/export?id=...              - Export one session (omit id for all)
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jeranaias/lumi-chat/internal/export"
	"github.com/jeranaias/lumi-chat/internal/model"
	"github.com/jeranaias/lumi-chat/internal/router"
	"github.com/jeranaias/lumi-chat/internal/store"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8780

	// MaxRequestBodySize caps request bodies (64KB is plenty for chat).
	MaxRequestBodySize = 64 * 1024

	// MaxMessageLength caps a single chat message.
	MaxMessageLength = 32 * 1024

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server exposes the session store and reply chain over HTTP.
type Server struct {
	port     int
	sessions *store.Store
	chain    *router.Router
	mux      *http.ServeMux
	server   *http.Server
	started  time.Time
}

// New creates a server bound to the given collaborators.
func New(port int, sessions *store.Store, chain *router.Router) *Server {
	if port <= 0 {
		port = DefaultPort
	}
	s := &Server{
		port:     port,
		sessions: sessions,
		chain:    chain,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.mux.HandleFunc("DELETE /v1/sessions", s.handleDeleteAll)

	s.mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /v1/sessions/{id}/messages", s.handleSendMessage)
	s.mux.HandleFunc("POST /v1/sessions/{id}/pin", s.flagHandler(s.sessions.Pin))
	s.mux.HandleFunc("POST /v1/sessions/{id}/unpin", s.flagHandler(s.sessions.Unpin))
	s.mux.HandleFunc("POST /v1/sessions/{id}/archive", s.flagHandler(s.sessions.Archive))
	s.mux.HandleFunc("POST /v1/sessions/{id}/unarchive", s.flagHandler(s.sessions.Unarchive))
	s.mux.HandleFunc("POST /v1/sessions/{id}/select", s.flagHandler(s.sessions.SetCurrent))

	s.mux.HandleFunc("GET /v1/search", s.handleSearch)
	s.mux.HandleFunc("GET /v1/export", s.handleExport)
}

// Handler returns the routed handler with middleware applied. Exposed
// for tests.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(log.Default()),
		BodyLimitMiddleware(MaxRequestBodySize),
	)(s.mux)
}

// Start runs the server on localhost until it fails or is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.started = time.Now()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Printf("SERVER_START | addr=%s version=%s", addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  Version,
		"sessions": s.sessions.Len(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []*model.Session
	switch r.URL.Query().Get("view") {
	case "", "visible":
		sessions = s.sessions.Sessions()
	case "archived":
		sessions = s.sessions.Archived()
	case "pinned":
		sessions = s.sessions.Pinned()
	case "all":
		sessions = s.sessions.All()
	default:
		s.writeError(w, http.StatusBadRequest, "unknown view (want visible, archived, pinned, or all)")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions": summarize(sessions),
		"current":  s.sessions.CurrentID(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.NewSession()
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	s.sessions.DeleteAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(r.PathValue("id"))
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// flagHandler adapts the store's id-taking mutations to HTTP.
func (s *Server) flagHandler(op func(id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.PathValue("id")); err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				s.writeError(w, http.StatusNotFound, "session not found")
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type sendMessageRequest struct {
	Content     string             `json:"content"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

type sendMessageResponse struct {
	UserMessage      *model.Message `json:"userMessage"`
	AssistantMessage *model.Message `json:"assistantMessage"`
	Source           string         `json:"source"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.sessions.Get(id) == nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == "" {
		s.writeError(w, http.StatusBadRequest, "content must not be empty")
		return
	}
	if len(req.Content) > MaxMessageLength {
		s.writeError(w, http.StatusRequestEntityTooLarge, "message too long")
		return
	}

	userMsg := model.NewUserMessageWithAttachments(req.Content, req.Attachments)
	if err := s.sessions.AppendMessage(id, userMsg); err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	reply, err := s.chain.Send(r.Context(), req.Content)
	if err != nil {
		// Only cancellation reaches here; the user message is already
		// stored, matching the interactive behavior.
		s.writeError(w, http.StatusServiceUnavailable, "reply aborted")
		return
	}

	assistantMsg := model.NewAssistantMessage(reply.Text)
	if err := s.sessions.AppendMessage(id, assistantMsg); err != nil {
		s.writeError(w, http.StatusNotFound, "session deleted mid-reply")
		return
	}

	s.writeJSON(w, http.StatusOK, sendMessageResponse{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Source:           string(reply.Source),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results := s.sessions.Search(r.URL.Query().Get("q"))
	s.writeJSON(w, http.StatusOK, map[string]any{
		"sessions": summarize(results),
		"total":    len(results),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exporter := export.NewJSONExporter()

	var (
		content  []byte
		filename string
		err      error
	)
	if id := r.URL.Query().Get("id"); id != "" {
		sess := s.sessions.Get(id)
		if sess == nil {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		content, err = exporter.ExportSession(sess)
		filename = export.Filename(sess.Title, exporter.FileExtension())
	} else {
		all := s.sessions.All()
		if len(all) == 0 {
			s.writeError(w, http.StatusNotFound, "nothing to export")
			return
		}
		content, err = exporter.ExportAll(all)
		filename = export.Filename("all_chats", exporter.FileExtension())
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// ============================================================================
// HELPERS
// ============================================================================

// sessionSummary is the list-view shape: metadata without messages.
type sessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	IsPinned     bool      `json:"isPinned"`
	IsArchived   bool      `json:"isArchived"`
	MessageCount int       `json:"messageCount"`
	Preview      string    `json:"preview"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func summarize(sessions []*model.Session) []sessionSummary {
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			IsPinned:     sess.IsPinned,
			IsArchived:   sess.IsArchived,
			MessageCount: sess.MessageCount(),
			Preview:      sess.Preview(60),
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
		})
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
