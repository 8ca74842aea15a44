// Package server provides the HTTP API for ingat.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/ingat/internal/models"
)

// Memory is the document memory served by the API.
type Memory interface {
	AddDocument(ctx context.Context, content string, metadata map[string]interface{}) (int64, error)
	Search(ctx context.Context, query string, k int) ([]*models.SearchResult, error)
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	ListDocuments(ctx context.Context) []*models.Document
	Count(ctx context.Context) int64
	Stats(ctx context.Context) models.Stats
	MaxDocuments() int64
}

// Chatter answers queries with or without retrieval.
type Chatter interface {
	Chat(ctx context.Context, query string, useRAG bool) string
}

// Options carries the settings reported by /status and used for defaults.
type Options struct {
	Addr           string
	TopK           int
	DatabasePath   string
	IndexType      string
	EmbeddingModel string
	// RequestTimeout bounds each request; generation can be slow so the default is generous.
	RequestTimeout time.Duration
}

// Server is the HTTP server for the ingat API.
type Server struct {
	memory Memory
	chat   Chatter
	opts   Options
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(memory Memory, chat Chatter, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Minute
	}
	return &Server{
		memory: memory,
		chat:   chat,
		opts:   opts,
		logger: logger,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleAddDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/count", s.handleCount)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Post("/search", s.handleSearch)
		r.Post("/chat", s.handleChat)
		r.Post("/direct", s.handleDirect)
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", s.opts.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
