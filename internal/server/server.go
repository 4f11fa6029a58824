// Package server provides the HTTP API: uploads, questions, retrieval and
// read-only views of the catalog and ingestion log.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
)

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.AskResponse, error)
}

// Inbox reports the directories being watched for new files.
type Inbox interface {
	Directories() []string
}

// Server is the HTTP server for the kotae API.
type Server struct {
	engine  *search.Engine
	indexer *indexer.Indexer
	asker   Asker
	audit   storage.IngestionLog
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	inbox   Inbox
	server  *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics serves m at /metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithInbox reports the watched directories in /api/v1/status.
func WithInbox(in Inbox) ServerOption {
	return func(s *Server) { s.inbox = in }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	asker Asker,
	audit storage.IngestionLog,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	s := &Server{
		engine:  engine,
		indexer: idx,
		asker:   asker,
		audit:   audit,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Generation.Timeout + 30*time.Second))
	r.Use(middleware.Compress(5))

	for _, p := range []string{"/upload", "/upload/"} {
		r.Post(p, s.handleUpload)
	}
	for _, p := range []string{"/ask", "/ask/"} {
		r.Post(p, s.handleAsk)
	}
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/documents", s.handleDocuments)
		r.Get("/status", s.handleStatus)
		r.Get("/ingestions", s.handleIngestions)
		r.Post("/search", s.handleSearch)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
