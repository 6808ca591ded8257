// Package server provides the HTTP server for the crease technique coach.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/crease/internal/app"
	"github.com/ayusman/crease/internal/metrics"
	"github.com/ayusman/crease/internal/server/api"
	"github.com/ayusman/crease/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the crease application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
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
	metrics.RegisterHandler(s.mux)

	if s.config.Store != nil {
		analyses := api.NewAnalysisHandler(s.config.Store)
		s.mux.Handle("/api/analyses", analyses)
		s.mux.Handle("/api/analyses/", analyses)
	}

	if s.config.App != nil {
		s.mux.Handle("/api/analyze", api.NewAnalyzeHandler(s.config.App))
		s.mux.Handle("/api/live/", api.NewLiveHandler(s.config.App))
		s.mux.Handle("/api/live/ws", NewEventsHandler(s.config.App.Live()))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App.Poses()))
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

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.App != nil {
		response["camera"] = s.config.App.Running()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
