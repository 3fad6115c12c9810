package api

import (
	"encoding/json"
	"net/http"

	"drivetime/internal/engine"
	"drivetime/internal/store"
)

// maxRequestBody is the maximum allowed request body size (8 MB; screenshot
// captures carry base64 image data).
const maxRequestBody int64 = 8 << 20

// Server holds the HTTP handlers and dependencies.
type Server struct {
	store       store.Repository
	pipeline    *engine.Pipeline
	synth       engine.Synthesizer
	defaultUser string
	corsOrigin  string
	mux         *http.ServeMux
}

// Options configures optional server collaborators.
type Options struct {
	// MCP, when set, is mounted at /api/mcp (all methods).
	MCP http.Handler
	// DefaultUser is applied when a request carries no userId.
	DefaultUser string
	// CORSOrigin is the allowed origin; "*" when empty.
	CORSOrigin string
}

// New creates a new API server.
func New(s store.Repository, pipeline *engine.Pipeline, synth engine.Synthesizer, opts Options) *Server {
	if opts.DefaultUser == "" {
		opts.DefaultUser = "local"
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	srv := &Server{
		store:       s,
		pipeline:    pipeline,
		synth:       synth,
		defaultUser: opts.DefaultUser,
		corsOrigin:  opts.CORSOrigin,
		mux:         http.NewServeMux(),
	}
	srv.routes(opts.MCP)
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(limitBody(s.mux))
}

func (s *Server) routes(mcp http.Handler) {
	s.mux.HandleFunc("GET /api/artifacts", s.handleList)
	s.mux.HandleFunc("POST /api/artifacts", s.handleCreate)
	s.mux.HandleFunc("GET /api/artifacts/{id}", s.handleGet)
	s.mux.HandleFunc("PATCH /api/artifacts/{id}", s.handleUpdateStatus)
	s.mux.HandleFunc("DELETE /api/artifacts/{id}", s.handleDelete)
	s.mux.HandleFunc("POST /api/tts", s.handleTTS)
	if mcp != nil {
		s.mux.Handle("/api/mcp", mcp)
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// corsMiddleware sets permissive CORS headers so the extension popup and
// player page can call the API from any origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, map[string]string{"error": msg, "details": details})
}
