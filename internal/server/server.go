// Package server provides the HTTP API for interleave: chapter pairs, alignment
// sessions, the fix-up loop and merged chapter output.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/interleave/internal/config"
	"github.com/hyperjump/interleave/internal/session"
)

// WatchService reports the book directories being watched. It may be nil when
// watching is disabled.
type WatchService interface {
	Dirs() []string
}

// Server is the HTTP server for the interleave API.
type Server struct {
	manager *session.Manager
	config  *config.ServerConfig
	logger  *zap.Logger
	watch   WatchService
	server  *http.Server
}

// NewServer creates a server with the given dependencies. watch may be nil.
func NewServer(manager *session.Manager, cfg *config.ServerConfig, logger *zap.Logger, watch WatchService) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		manager: manager,
		config:  cfg,
		logger:  logger,
		watch:   watch,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/books", s.handleBooks)
		r.Get("/chapters", s.handleChapters)
		r.Delete("/cache", s.handleClearCache)
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/fixup", s.handleNextFixup)
			r.Post("/fixup", s.handleConfirmFixup)
			r.Get("/merge", s.handleMerge)
			r.Get("/search", s.handleSearch)
			r.Get("/export.xlsx", s.handleExport)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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
