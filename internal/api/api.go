package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joescharf/bugtrack/internal/bugs"
	"github.com/joescharf/bugtrack/internal/metrics"
	"github.com/joescharf/bugtrack/internal/models"
)

// maxBodyBytes caps request bodies on write endpoints.
const maxBodyBytes = 1 << 20

const (
	msgInvalidPayload = "Invalid bug payload"
	msgNotFound       = "Bug not found"
	msgInternal       = "Internal server error"
)

// Server provides the REST API handlers.
type Server struct {
	bugs    *bugs.Service
	log     *slog.Logger
	metrics *metrics.Metrics
	ui      http.Handler
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithLogger sets the logger used for access and error logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithUI serves h for every path outside /api/, /health and /metrics.
func WithUI(h http.Handler) Option {
	return func(s *Server) { s.ui = h }
}

// NewServer creates a new API server over the bug service.
func NewServer(svc *bugs.Service, opts ...Option) *Server {
	s := &Server{bugs: svc, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/bugs", s.listBugs)
	mux.HandleFunc("POST /api/bugs", s.createBug)
	mux.HandleFunc("GET /api/bugs/{id}", s.getBug)
	mux.HandleFunc("PUT /api/bugs/{id}", s.updateBug)
	mux.HandleFunc("DELETE /api/bugs/{id}", s.deleteBug)

	mux.HandleFunc("GET /health", s.health)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.ui != nil {
		mux.HandleFunc("/api/", func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		})
		mux.Handle("/", s.ui)
	}

	return s.logRequests(corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "Location, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError maps a service error onto its status code. Store faults are
// logged with the request id and answered without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidPayload):
		s.log.Debug("rejected payload", "request_id", requestID(r.Context()), "reason", err)
		writeError(w, http.StatusBadRequest, msgInvalidPayload)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	default:
		s.log.Error("request failed",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		s.metrics.StoreFault()
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
