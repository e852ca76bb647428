// Package api serves the report normalizer and the view session over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sprite-ai/devpulse/internal/markdown"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 16 << 20

// Analyzer fetches the raw analysis payload for a repository.
type Analyzer interface {
	Analyze(ctx context.Context, repoURL string) ([]byte, error)
}

// Server is the devpulse HTTP API server.
type Server struct {
	addr      string
	mux       *http.ServeMux
	server    *http.Server
	analyzer  Analyzer
	sanitizer *markdown.Sanitizer
	log       *slog.Logger
	upgrader  websocket.Upgrader
	origins   map[string]bool
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer sets the service used by websocket submissions.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Server) { s.analyzer = a }
}

// WithSanitizer sets the narrative sanitizer (and so the code theme).
func WithSanitizer(m *markdown.Sanitizer) Option {
	return func(s *Server) { s.sanitizer = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAllowedOrigins lets websocket clients from these origins connect in addition to
// same-origin pages.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				s.origins[strings.ToLower(o)] = true
			}
		}
	}
}

// New creates a new API server.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		sanitizer: markdown.Default(),
		log:       slog.Default(),
		origins:   map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024 * 64,
		WriteBufferSize: 1024 * 64,
		CheckOrigin:     s.checkOrigin,
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/normalize", s.handleNormalize)
	s.mux.HandleFunc("POST /api/render", s.handleRender)
	s.mux.HandleFunc("GET /api/ws", s.handleWebSocket)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log.Info("devpulse API server listening", "addr", s.addr)
	errc := make(chan error, 1)
	go func() { errc <- s.server.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		s.log.Warn("json encode error", "err", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.log.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", msg)
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
