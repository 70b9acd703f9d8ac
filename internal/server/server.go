// Package server exposes a parsed lockfile as a read-only JSON API.
//
// Endpoints:
//
//	GET /healthz                             liveness probe
//	GET /api/v1/lockfile                     lockfile summary
//	GET /api/v1/packages                     all package records
//	GET /api/v1/packages/{name}              one package record
//	GET /api/v1/packages/{name}/artifacts    artifact selection for an environment
//	GET /api/v1/graph                        dependency graph (nodes and edges)
//
// The lockfile is parsed once at startup and never mutated, so handlers
// need no locking.
package server

import (
	"context"
	"net/http"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/lockview/lockview/pkg/lockfile"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
}

// Server serves lockfile data over HTTP.
type Server struct {
	cfg    Config
	lf     *lockfile.Lockfile
	logger *charmlog.Logger
	router chi.Router
}

// New builds a server around a parsed lockfile.
func New(cfg Config, lf *lockfile.Lockfile, logger *charmlog.Logger) *Server {
	s := &Server{cfg: cfg, lf: lf, logger: logger}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lockfile", s.handleLockfile)
		r.Get("/packages", s.handlePackages)
		r.Get("/packages/{name}", s.handlePackage)
		r.Get("/packages/{name}/artifacts", s.handleArtifacts)
		r.Get("/graph", s.handleGraph)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully with a
// 10 second drain window.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", s.cfg.Addr, "packages", len(s.lf.Packages))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
