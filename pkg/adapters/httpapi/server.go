// Package httpapi exposes pipeline execution over HTTP: submit a manifest,
// inspect persisted states, scrape metrics.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/sluice"
	"github.com/aretw0/sluice/internal/logging"
	"github.com/aretw0/sluice/pkg/manifest"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/aretw0/sluice/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server routes HTTP requests into a Sluice engine.
type Server struct {
	engine *sluice.Engine
	logger *slog.Logger
}

// Option configures the handler.
type Option func(*handlerConfig)

type handlerConfig struct {
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// WithLogger sets a structured logger (default: no-op).
func WithLogger(logger *slog.Logger) Option {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

// WithMetricsEndpoint mounts /metrics for the given gatherer.
func WithMetricsEndpoint(g prometheus.Gatherer) Option {
	return func(c *handlerConfig) {
		c.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine *sluice.Engine, opts ...Option) http.Handler {
	cfg := &handlerConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{engine: engine, logger: cfg.logger}

	r := chi.NewRouter()
	r.Post("/runs", s.runPipeline)
	r.Get("/states", s.listStates)
	r.Get("/states/{pipelineID}", s.getState)
	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

type runResponse struct {
	Pipeline   string `json:"pipeline"`
	RunID      string `json:"run_id"`
	Data       any    `json:"data"`
	References []any  `json:"references"`
	Partial    bool   `json:"partial,omitempty"`
	Error      string `json:"error,omitempty"`
}

// runPipeline executes the manifest posted in the request body.
func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	m, err := manifest.Parse(body)
	if err != nil {
		s.logger.Warn("rejected manifest", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exec := s.engine.NewExecution(m.Pipeline, m.Backend)
	ops, err := manifest.Compile(exec, m.Operations)
	if err != nil {
		s.logger.Warn("rejected manifest", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	final, runErr := s.engine.Run(r.Context(), exec, ops...)

	resp := runResponse{
		Pipeline:   m.Pipeline,
		RunID:      exec.RunID,
		Data:       final.Data,
		References: final.References,
	}

	status := http.StatusOK
	if runErr != nil {
		resp.Error = runErr.Error()
		if pipeline.IsFatal(runErr) {
			// The backend refused the handshake; nothing ran.
			status = http.StatusBadGateway
		} else {
			resp.Partial = true
		}
	}

	writeJSON(w, status, resp)
}

func (s *Server) listStates(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.States(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pipelines": ids})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "pipelineID")

	st, err := s.engine.State(r.Context(), pipelineID)
	if err != nil {
		if errors.Is(err, ports.ErrStateNotFound) {
			http.Error(w, "unknown pipeline", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
