// Package server exposes the game over HTTP: the leaderboard, session
// control, and websocket streams of game frames and tracker output.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/stickman/internal/capture"
	"github.com/ayusman/stickman/internal/server/api"
	"github.com/ayusman/stickman/internal/store"
)

// Default manual override limits.
const (
	DefaultControlRate  = 20.0
	DefaultControlBurst = 5
)

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir    string
	Store        *store.Store
	Controller   api.Controller
	Hub          *Hub
	Feed         *capture.Feed
	Preview      *capture.Preview
	ControlRate  float64
	ControlBurst int
}

// Server represents the HTTP server.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	landmarks *LandmarksHandler

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.ControlRate <= 0 {
		config.ControlRate = DefaultControlRate
	}
	if config.ControlBurst <= 0 {
		config.ControlBurst = DefaultControlBurst
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		s.mux.Handle("/api/leaderboard", api.NewLeaderboardHandler(s.config.Store))
	}

	if s.config.Controller != nil {
		session := api.NewSessionHandler(s.config.Controller)
		s.mux.Handle("/api/session", session)
		s.mux.Handle("/api/session/", session)
		s.mux.Handle("/api/control", api.NewControlHandler(s.config.Controller, s.config.ControlRate, s.config.ControlBurst))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/stream", s.config.Hub)
	}

	if s.config.Feed != nil {
		s.landmarks = NewLandmarksHandler(s.config.Feed)
		s.mux.Handle("/api/landmarks", s.landmarks)
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/camera", NewPreviewHandler(s.config.Preview))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Controller != nil {
		response["phase"] = s.config.Controller.Snapshot().Phase
	}
	if s.config.Hub != nil {
		response["viewers"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address. It returns nil
// after Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	log.Info().Str("addr", addr).Msg("http server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and stops the landmark broadcaster.
// Hijacked websocket connections are not tracked and close with the process.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.landmarks != nil {
		s.landmarks.Close()
	}

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
