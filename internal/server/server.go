package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/scopetimer/internal/logging"
	"github.com/psantana5/scopetimer/internal/ratelimit"
	"github.com/psantana5/scopetimer/internal/report"
	"github.com/psantana5/scopetimer/internal/tracing"
	"github.com/psantana5/scopetimer/pkg/timer"
)

// Server exposes the duration formatter over HTTP
type Server struct {
	metrics  *report.Metrics
	limiter  *ratelimit.Limiter
	tracer   trace.Tracer
	logger   *logging.Logger
	validate *validator.Validate
}

// FormatRequest holds the /v1/format query parameters
type FormatRequest struct {
	Seconds float64          `validate:"gte=0"`
	Mode    timer.FormatMode `validate:"min=0,max=4"`
	Label   string           `validate:"max=256"`
}

// FormatResponse is the /v1/format JSON body
type FormatResponse struct {
	Mode             string  `json:"mode"`
	Seconds          float64 `json:"seconds"`
	Elapsed          float64 `json:"elapsed"`
	ElapsedFormatted any     `json:"elapsed_formatted"`
	Unit             string  `json:"unit"`
	Line             string  `json:"line"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server. A nil limiter disables rate limiting.
func New(metrics *report.Metrics, limiter *ratelimit.Limiter, logger *logging.Logger) *Server {
	if metrics == nil {
		metrics = report.Global()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		metrics:  metrics,
		limiter:  limiter,
		logger:   logger,
		validate: validator.New(),
	}
}

// SetTracer enables a span per request
func (s *Server) SetTracer(tracer trace.Tracer) {
	s.tracer = tracer
}

// RegisterRoutes registers all HTTP routes
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.health).Methods("GET")
	r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	r.HandleFunc("/v1/format", s.format).Methods("GET")
}

// Handler returns the router wrapped in tracing and the rate limiter
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.RegisterRoutes(router)
	if s.tracer != nil {
		router.Use(tracing.HTTPMiddleware(s.tracer))
	}
	if s.limiter != nil {
		router.Use(s.limiter.Middleware(ratelimit.IPKeyFunc))
	}
	return router
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, srv *http.Server) error {
	srv.Handler = s.Handler()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", map[string]interface{}{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) format(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseFormatRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	m, err := timer.Format(req.Seconds, req.Mode)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, timer.ErrRange) {
			status = http.StatusUnprocessableEntity
			s.metrics.RecordFailure(report.ReasonRange)
		}
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.metrics.RecordMeasurement(req.Label, m)

	s.writeJSON(w, http.StatusOK, FormatResponse{
		Mode:             m.Mode.String(),
		Seconds:          m.Seconds,
		Elapsed:          m.Elapsed,
		ElapsedFormatted: m.Formatted(),
		Unit:             m.Unit,
		Line:             m.Line(req.Label),
	})
}

func (s *Server) parseFormatRequest(r *http.Request) (*FormatRequest, error) {
	q := r.URL.Query()

	raw := q.Get("seconds")
	if raw == "" {
		return nil, fmt.Errorf("missing seconds parameter")
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seconds %q: %w", raw, err)
	}
	if math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return nil, fmt.Errorf("invalid seconds %q: must be a finite number", raw)
	}

	mode := timer.DefaultFormat
	if rawMode := q.Get("mode"); rawMode != "" {
		mode, err = timer.ParseFormatMode(rawMode)
		if err != nil {
			return nil, err
		}
	}

	req := &FormatRequest{
		Seconds: seconds,
		Mode:    mode,
		Label:   q.Get("label"),
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return req, nil
}

// writeJSON marshals body before the header is written; an unencodable
// body becomes a 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Debug("Failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
