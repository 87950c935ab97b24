// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the knowledge base over HTTP: on-demand
// harvesting, corpus queries, and extracted protein records.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/feliks-hub/protein-kb/internal/corpus"
	"github.com/feliks-hub/protein-kb/internal/harvest"
	"github.com/feliks-hub/protein-kb/pkg/types"
)

// ChatBackend answers questions over retrieved context.
type ChatBackend interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Server wires the pipeline stages behind an HTTP API.
type Server struct {
	harvester    *harvest.Harvester
	store        *corpus.Store
	embedder     corpus.Embedder
	llm          ChatBackend
	knowledgeDir string
	cfg          types.ServerConfig
}

// New creates a Server. embedder may be nil; queries then use full-text
// search. llm may be nil; query responses then carry hits only, no
// synthesized answer.
func New(harvester *harvest.Harvester, store *corpus.Store, embedder corpus.Embedder, llm ChatBackend, knowledgeDir string, cfg types.ServerConfig) *Server {
	return &Server{
		harvester:    harvester,
		store:        store,
		embedder:     embedder,
		llm:          llm,
		knowledgeDir: knowledgeDir,
		cfg:          cfg,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/harvest/{gene}", s.handleHarvest)
	r.Post("/query", s.handleQuery)
	r.Route("/proteins/{gene}", func(r chi.Router) {
		r.Get("/record", s.handleRecord)
		r.Get("/documents", s.handleDocuments)
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
