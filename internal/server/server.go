package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/shipbridge/internal/shipping"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 1 << 20

// Executor runs a shipping command.
type Executor interface {
	Execute(ctx context.Context, cmd shipping.Command) (any, error)
}

// Server is the HTTP server for the shipping service.
type Server struct {
	port     int
	shutdown time.Duration
	exec     Executor
	registry *shipper.Registry
	gatherer prometheus.Gatherer
	logger   *otelzap.Logger
	router   chi.Router
}

// Config holds server configuration.
type Config struct {
	Port            int
	ShutdownTimeout time.Duration
}

// New creates a new server instance. A nil gatherer serves the default
// Prometheus registry.
func New(cfg Config, exec Executor, registry *shipper.Registry, gatherer prometheus.Gatherer, logger *otelzap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	s := &Server{
		port:     cfg.Port,
		shutdown: cfg.ShutdownTimeout,
		exec:     exec,
		registry: registry,
		gatherer: gatherer,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/shipping", s.handleShipping)
		r.Get("/carriers", s.handleCarriers)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleShipping(w http.ResponseWriter, r *http.Request) {
	var cmd shipping.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON: " + err.Error()})
		return
	}

	ctx := r.Context()
	result, err := s.exec.Execute(ctx, cmd)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Ctx(ctx).Error("Shipping command failed",
				zap.String("action", string(cmd.Action)),
				zap.String("carrier", cmd.Carrier),
				zap.Error(err),
			)
		}
		writeJSON(w, status, errorResponse{Error: shipper.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: result})
}

func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.Carriers()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: out})
}

// statusFor maps the shipping error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch shipping.ErrorKind(err) {
	case "invalid_request", "unsupported_carrier":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "not_configured":
		return http.StatusPreconditionFailed
	case "not_supported":
		return http.StatusNotImplemented
	case "auth", "api":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
