// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/qisumi/inkvault/internal/artifact"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/discovery"
	"github.com/qisumi/inkvault/internal/download"
	"github.com/qisumi/inkvault/internal/platform/authgate"
	"github.com/qisumi/inkvault/internal/platform/config"
	"github.com/qisumi/inkvault/internal/platform/constants"
	"github.com/qisumi/inkvault/internal/platform/middleware"
	"github.com/qisumi/inkvault/internal/quota"
	"github.com/qisumi/inkvault/internal/reader"
	"github.com/qisumi/inkvault/internal/users"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here and register its routes in [NewServer].
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the app-wide password gate (spec §4.8): login, logout,
	// status. There is no per-user account system.
	Auth *authHandler

	// Catalog handles book browsing, status polling, and deletion.
	Catalog *catalog.Handler

	// Discovery handles provider search, add-book, refresh, and new-chapter
	// detection. Mounted alongside Catalog at the same prefix.
	Discovery *discovery.Handler

	// Reader handles table of contents, chapter content, and cross-device
	// progress/bookmark/history sync. Mounted per-book alongside Artifact.
	Reader *reader.Handler

	// Artifact handles on-demand EPUB/TXT assembly and download. Mounted
	// per-book alongside Reader.
	Artifact *artifact.Handler

	// Download handles the Task API Facade's synchronous surface: creating,
	// cancelling, retrying, and listing download tasks.
	Download *download.Handler

	// Quota handles daily per-provider usage inspection. Mounted as a
	// sub-route of Download's prefix.
	Quota *quota.Handler

	// Users handles bookshelf-owner profiles and saved-book bookshelves.
	Users *users.Handler

	// WS bridges the Progress Bus to the task/book WebSocket endpoints.
	WS *wsHandler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, gate *authgate.Gate, extraOrigins []string, h Handlers) *Server {
	rte := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	rte.Use(middleware.RequestID())
	rte.Use(middleware.StructuredLogger(log))
	rte.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	rte.Use(middleware.RateLimit(ctx))
	rte.Use(middleware.PanicRecovery(log))
	rte.Use(middleware.AuthGate(gate))
	rte.Use(middleware.CORS(cfg, extraOrigins))
	rte.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	rte.Get("/health", h.Liveness)
	rte.Get("/ready", h.Readiness)

	// # Application API
	rte.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Auth.login)
			r.Post("/logout", h.Auth.logout)
			r.Get("/status", h.Auth.status)
		})

		api.Route("/books", func(r chi.Router) {
			r.Mount("/", h.Catalog.Routes())
			r.Mount("/", h.Discovery.Routes())

			// Reader and Artifact hang off a per-book sub-router so their
			// route patterns (/toc, /epub, ...) stay free of the {book}
			// param collisions a flat mount would create.
			r.Route("/{book}", func(br chi.Router) {
				br.Mount("/", h.Reader.Routes())
				br.Mount("/", h.Artifact.Routes())
			})
		})

		api.Route("/tasks", func(r chi.Router) {
			r.Mount("/quota", h.Quota.Routes())
			r.Mount("/", h.Download.Routes())
		})

		api.Mount("/users", h.Users.Routes())
	})

	rte.Mount("/ws", h.WS.Routes())

	return &Server{
		router: rte,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           rte,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
