package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/index"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/stream"
	"github.com/hyperjump/frontpage/pkg/utils"
)

// searchRequest selects an index and a query.
type searchRequest struct {
	Query string `json:"query"`
	Kind  string `json:"kind"`
	Level string `json:"level"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Query string      `json:"query"`
	Kind  string      `json:"kind"`
	Level string      `json:"level"`
	Hits  []index.Hit `json:"hits"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, err := index.ParseKind(req.Kind)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	level, err := index.ParseLevel(req.Level)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", utils.Truncate(req.Query, 120)),
		zap.String("kind", req.Kind),
		zap.String("level", req.Level),
		zap.Int("limit", req.Limit))

	retriever, err := s.retrievers(kind)
	if err != nil {
		s.logger.Error("retriever unavailable", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	hits, err := retriever.Query(r.Context(), level, req.Query, req.Limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	s.respondJSON(w, http.StatusOK, searchResponse{
		Query: req.Query,
		Kind:  req.Kind,
		Level: req.Level,
		Hits:  hits,
	})
}

func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var a models.Annotation
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if a.Text == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if !s.labels[a.Label] {
		s.respondError(w, http.StatusBadRequest, "unknown label")
		return
	}
	switch a.Answer {
	case models.AnswerAccept, models.AnswerReject, models.AnswerIgnore:
	default:
		s.respondError(w, http.StatusBadRequest, "answer must be accept, reject, or ignore")
		return
	}
	a.ID = uuid.New().String()

	path := filepath.Join(s.annotationsDir, a.Label+".jsonl")
	if err := stream.AppendLine(path, &a); err != nil {
		s.logger.Error("annotation write failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("annotation stored",
		zap.String("id", a.ID),
		zap.String("text", utils.Truncate(a.Text, 120)),
		zap.String("label", a.Label),
		zap.String("answer", a.Answer))
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": a.ID, "status": "stored"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
