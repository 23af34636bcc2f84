// Package server wires the spawner's HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"slurmspawn/internal/server/handlers"
	"slurmspawn/internal/server/middleware"
)

// Options configure the API server.
type Options struct {
	Addr string
	// AuthSecret, when set, requires a matching bearer token on session
	// endpoints. Health probes stay open.
	AuthSecret string
	// RateLimit / RateLimitBurst throttle session calls per owner.
	RateLimit      float64
	RateLimitBurst int
}

// Server is the HTTP server for the spawner API.
type Server struct {
	httpServer *http.Server
}

// New creates the API server with its routes and middleware.
func New(opts Options, h *handlers.Handlers) *Server {
	auth := middleware.Auth(opts.AuthSecret)
	limit := middleware.RateLimit(opts.RateLimit, opts.RateLimitBurst)

	session := func(hf http.HandlerFunc) http.Handler {
		return middleware.RequestID(auth(limit(hf)))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /sessions/{owner}/{name}", session(h.StartSession))
	mux.Handle("GET /sessions/{owner}/{name}", session(h.PollSession))
	mux.Handle("GET /sessions/{owner}/{name}/identity", session(h.GetSession))
	mux.Handle("DELETE /sessions/{owner}/{name}", session(h.StopSession))

	// Probes are unauthenticated for orchestrator health checks.
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)

	return &Server{
		httpServer: &http.Server{
			Addr:    opts.Addr,
			Handler: mux,
			// Start can legitimately take minutes while the scheduler
			// queues the job, so the write timeout is generous.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Minute,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
