// Package http exposes the curation service over HTTP: health, readiness,
// metrics, and a run-trigger endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/gbif-curation-service/internal/domain"
	"github.com/couchcryptid/gbif-curation-service/internal/pipeline"
)

// Curator executes one curation run.
type Curator interface {
	Run(ctx context.Context, params pipeline.RunParams) (*pipeline.RunResult, error)
}

// CuratedPublisher forwards curated records to a downstream sink. May be nil
// when publishing is disabled.
type CuratedPublisher interface {
	PublishCurated(ctx context.Context, records []domain.CuratedRecord) error
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and run endpoints.
type Server struct {
	httpServer *http.Server
	curator    Curator
	publisher  CuratedPublisher
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// POST /runs routes. publisher may be nil.
func NewServer(addr string, curator Curator, publisher CuratedPublisher,
	ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Runs block on remote lookups for every record; give them room.
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		curator:   curator,
		publisher: publisher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /runs", s.handleRun)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// runResponse summarizes a completed run for API callers.
type runResponse struct {
	Report     domain.RunReport `json:"report"`
	ReportText string           `json:"report_text"`
	Published  int              `json:"published,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var params pipeline.RunParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := params.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.curator.Run(r.Context(), params)
	if err != nil {
		s.logger.Error("run failed", "species", params.Species, "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	resp := runResponse{
		Report:     result.Report,
		ReportText: result.Report.Render(),
	}
	if s.publisher != nil {
		if err := s.publisher.PublishCurated(r.Context(), result.Curated); err != nil {
			s.logger.Error("publish curated records failed", "error", err)
		} else {
			resp.Published = len(result.Curated)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
