// Package server provides the HTTP API for annotation tooling: index search,
// annotation capture, and the built site.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/index"
)

// RetrieverFactory returns the retriever for an index kind. The server
// resolves kinds per request so a rebuild on disk is picked up without a
// restart.
type RetrieverFactory func(kind index.Kind) (index.Retriever, error)

// Server is the HTTP server for the annotation API.
type Server struct {
	retrievers     RetrieverFactory
	annotationsDir string
	labels         map[string]bool
	siteDir        string
	config         *config.ServerConfig
	logger         *zap.Logger
	server         *http.Server
}

// NewServer creates a server with the given dependencies. Labels are the
// configured section labels; annotations for any other label are rejected.
func NewServer(
	retrievers RetrieverFactory,
	annotationsDir string,
	labels []string,
	siteDir string,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	labelSet := make(map[string]bool, len(labels))
	for _, label := range labels {
		labelSet[label] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		retrievers:     retrievers,
		annotationsDir: annotationsDir,
		labels:         labelSet,
		siteDir:        siteDir,
		config:         cfg,
		logger:         logger,
	}
}

// router assembles the middleware stack and routes.
func (s *Server) router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/annotations", s.handleCreateAnnotation)
	r.Get("/health", s.handleHealth)
	if s.siteDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.siteDir)))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
