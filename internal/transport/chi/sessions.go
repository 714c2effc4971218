package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/conversation"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
)

// TitleHeader carries the document title when the title query parameter is absent.
const TitleHeader = "X-Document-Title"

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusCreated, sessionToResponse(sess.Info()))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SessionListResponse{Items: s.sessions.IDs()})
}

// GetSession handles GET /sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess.Info()))
}

// DeleteSession handles DELETE /sessions/{session}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(sess.ID()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDocument handles PUT /sessions/{session}/document. The body is the document text
// with pages separated by form feeds.
func (s *Server) SetDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeDocumentTooLarge, "document exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		title = r.Header.Get(TitleHeader)
	}

	raw, err := s.source.Extract(data, title)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx := logpkg.WithFields(r.Context(), zap.String("session_id", sess.ID()))
	reqLogger := logpkg.FromContext(ctx)
	progress := func(p domain.Progress) {
		reqLogger.Debug("Document ingestion progress",
			zap.String("stage", string(p.Stage)),
			zap.Int("done", p.Done),
			zap.Int("total", p.Total),
		)
	}

	info, err := sess.SetDocument(ctx, raw, progress)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(info))
}

// Ask handles POST /sessions/{session}/query.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	query, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	ans, err := sess.Ask(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerToResponse(ans))
}

// GetHistory handles GET /sessions/{session}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	turns := sess.History()
	if turns == nil {
		turns = []conversation.Turn{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Turns: turns})
}

// ClearHistory handles DELETE /sessions/{session}/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return "", false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Query is required")
		return "", false
	}
	return req.Query, true
}
