// Package server exposes the bridge contract over HTTP with JWT auth.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minderhq/minder/bridge"
	"github.com/minderhq/minder/config"
	"github.com/minderhq/minder/internal/version"
)

// Server is the Minder HTTP server.
type Server struct {
	cfg     config.Config
	bridge  *bridge.Bridge
	logger  *slog.Logger
	httpSrv *http.Server

	secretOnce      sync.Once
	generatedSecret string

	startTime time.Time
}

// New creates a server wrapping the given bridge.
func New(cfg config.Config, b *bridge.Bridge, logger *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		bridge:    b,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Start registers routes and begins listening. It blocks until the listener
// fails or Stop is called.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":9190"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes.
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/login", s.handleLogin)

	// Protected bridge surface.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/api/bridge", s.handleBridge)
		r.Get("/api/me", s.handleMe)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startTime).Truncate(time.Second).String(),
	})
}

// handleBridge decodes one envelope request, dispatches it, and returns the
// envelope response. The HTTP status is 200 even for failed operations; the
// envelope's success flag is authoritative.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	var req bridge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.bridge.Handle(req))
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
