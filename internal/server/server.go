// Package server provides the HTTP transport for the triage pipeline.
// It is a thin wrapper: all decision logic lives in the orchestrator.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/splitlight/triage/internal/common"
	"github.com/splitlight/triage/internal/engine"
	"github.com/splitlight/triage/internal/model"
	"github.com/splitlight/triage/internal/service"
)

// maxUploadBytes bounds file intake.
const maxUploadBytes = 10 << 20

// ExtractFunc converts uploaded raw bytes to analyzable text. Binary
// document formats (PDF and friends) need a real extraction step; the
// default handles plain UTF-8 only.
type ExtractFunc func(filename string, data []byte) (string, error)

// DefaultExtract accepts UTF-8 content and rejects binary uploads.
func DefaultExtract(filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("file content is not valid UTF-8 text")
	}
	return string(data), nil
}

// Server is the HTTP handler for intake and session endpoints.
type Server struct {
	orchestrator *engine.Orchestrator
	store        service.Storage
	extract      ExtractFunc
	mux          *http.ServeMux
}

// NewServer creates the HTTP server around the orchestrator. extract
// may be nil, in which case DefaultExtract is used.
func NewServer(orchestrator *engine.Orchestrator, store service.Storage, extract ExtractFunc) *Server {
	if extract == nil {
		extract = DefaultExtract
	}
	s := &Server{
		orchestrator: orchestrator,
		store:        store,
		extract:      extract,
		mux:          http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /process/text", s.handleProcessText)
	s.mux.HandleFunc("POST /process/file", s.handleProcessFile)
	s.mux.HandleFunc("GET /sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processRequest is the JSON body for POST /process/text.
type processRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

func (s *Server) handleProcessText(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	hint := req.ContentType
	if hint == "" {
		hint = req.Filename
	}

	s.process(w, r, engine.Intake{
		Content:     req.Content,
		ContentHint: hint,
		Filename:    req.Filename,
		Source:      "text_input",
	})
}

func (s *Server) handleProcessFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	content, err := s.extract(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	s.process(w, r, engine.Intake{
		Content:     content,
		ContentHint: header.Filename,
		Filename:    header.Filename,
		Source:      "file_upload",
	})
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, intake engine.Intake) {
	result, err := s.orchestrator.Process(r.Context(), intake)
	if err != nil {
		// Only infrastructure failure reaches here; content problems
		// are absorbed into the classification.
		slog.Error("Intake processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, userMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// sessionResponse is the payload for GET /sessions/{id}.
type sessionResponse struct {
	Session *model.Session     `json:"session"`
	Events  []model.AuditEvent `json:"events"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id required")
		return
	}

	session, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	events, err := s.store.ReadSession(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session events")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Session: session, Events: events})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// userMessage strips internal detail from errors surfaced to callers.
func userMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return "internal server error"
}
