// Package server exposes the transcription pipeline over HTTP: a submission
// endpoint for new runs, health probes, and a Prometheus metrics endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echoinstone/echoinstone/internal/capture"
	"github.com/echoinstone/echoinstone/internal/health"
	"github.com/echoinstone/echoinstone/internal/observe"
	"github.com/echoinstone/echoinstone/internal/orchestrator"
	"github.com/echoinstone/echoinstone/pkg/types"
)

// Runner starts pipeline runs. [orchestrator.Pipeline] satisfies this.
type Runner interface {
	Run(ctx context.Context, input string) (*orchestrator.Result, error)
}

// Config wires a [Server].
type Config struct {
	// Pipeline executes submitted runs. Required.
	Pipeline Runner

	// Metrics defaults to [observe.DefaultMetrics] when nil.
	Metrics *observe.Metrics

	// Health serves /healthz and /readyz. Defaults to a handler with no
	// readiness checkers.
	Health *health.Handler

	// AllowedOrigins configures CORS. Empty means all origins, without
	// credentials.
	AllowedOrigins []string

	// RunTimeout bounds a single synchronous run. Zero means no timeout
	// beyond the client's connection.
	RunTimeout time.Duration
}

// Server handles HTTP traffic for the pipeline.
type Server struct {
	cfg     Config
	metrics *observe.Metrics
}

// New returns a Server. Pipeline is required.
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("server: pipeline is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	return &Server{cfg: cfg, metrics: cfg.Metrics}, nil
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(corsOptions(s.cfg.AllowedOrigins)))
	r.Use(observe.Middleware(s.metrics))

	r.Get("/healthz", s.cfg.Health.Healthz)
	r.Get("/readyz", s.cfg.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transcriptions", s.handleTranscribe)
	})

	return r
}

// corsOptions mirrors the permissive defaults used by single-service
// deployments; credentials are only allowed with an explicit origin list.
func corsOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}
	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

// transcribeRequest is the submission body for POST /v1/transcriptions.
type transcribeRequest struct {
	// Input is a YouTube URL, a podcast RSS feed URL ending in .xml, or a
	// direct .mp3/.wav reference.
	Input string `json:"input"`
}

// transcribeResponse mirrors the result payload shape callers have always
// received: a status, the aligned segments, and a human-readable message.
type transcribeResponse struct {
	Status         string                `json:"status"`
	RunID          string                `json:"run_id,omitempty"`
	Location       string                `json:"location,omitempty"`
	Transcriptions []types.MergedSegment `json:"transcriptions,omitempty"`
	Message        string                `json:"message,omitempty"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, transcribeResponse{
			Status:  "error",
			Message: "invalid JSON body: " + err.Error(),
		})
		return
	}
	if req.Input == "" {
		writeJSON(w, http.StatusBadRequest, transcribeResponse{
			Status:  "error",
			Message: "input is required",
		})
		return
	}

	ctx := r.Context()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	res, err := s.cfg.Pipeline.Run(ctx, req.Input)
	switch {
	case errors.Is(err, capture.ErrUnsupportedInput):
		writeJSON(w, http.StatusUnprocessableEntity, transcribeResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	case err != nil:
		observe.Logger(ctx).Error("transcription run failed",
			slog.String("input", req.Input),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, transcribeResponse{
			Status:  "error",
			Message: "transcription failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{
		Status:         "success",
		RunID:          res.Run.ID,
		Location:       res.Location,
		Transcriptions: res.Run.Segments,
		Message:        "transcription completed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
