// Package server exposes the planner over HTTP.
//
// Routes:
//
//	POST /v1/plans          solve synchronously, publish the result
//	POST /v1/jobs           start an asynchronous solve
//	GET  /v1/jobs/{id}      poll a job
//	GET  /v1/plan           the currently published plan
//	GET  /v1/plan/render    the published plan as DOT, SVG or PNG
//	GET  /healthz           liveness and build info
//	GET  /metrics           Prometheus metrics
//
// Requests carry the same JSON document the CLI reads from request files.
// Errors are JSON objects with a code and message; the HTTP status follows
// the error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/tierplan/pkg/catalog"
	"github.com/matzehuels/tierplan/pkg/pipeline"
	"github.com/matzehuels/tierplan/pkg/planner"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8080"

	// DefaultJobRetention is how long finished jobs stay pollable.
	DefaultJobRetention = 15 * time.Minute

	// MaxRequestBytes bounds a request body.
	MaxRequestBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr         string
	Catalog      *catalog.Catalog
	Runner       *pipeline.Runner
	Logger       *log.Logger
	JobRetention time.Duration

	// Registry receives the server's metrics. Nil creates a private registry.
	Registry *prometheus.Registry
}

// Server is the HTTP API.
type Server struct {
	addr    string
	catalog *catalog.Catalog
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics *Metrics
	jobs    *jobStore
	board   planner.Board
	router  chi.Router

	// base is the parent context of asynchronous jobs. It outlives the
	// request that started a job and ends with the server.
	base   context.Context
	cancel context.CancelFunc
}

// New creates a server. Catalog is required.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = DefaultJobRetention
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	metrics, err := NewMetrics(cfg.Registry)
	if err != nil {
		return nil, err
	}

	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:    cfg.Addr,
		catalog: cfg.Catalog,
		runner:  cfg.Runner,
		logger:  cfg.Logger,
		metrics: metrics,
		jobs:    newJobStore(cfg.JobRetention),
		base:    base,
		cancel:  cancel,
	}
	s.router = s.routes(cfg.Registry)
	return s, nil
}

func (s *Server) routes(reg *prometheus.Registry) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/plans", s.handleSolve)
		r.Post("/jobs", s.handleStartJob)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/plan", s.handleCurrentPlan)
		r.Get("/plan/render", s.handleRenderPlan)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Board returns the board the server publishes solved plans to.
func (s *Server) Board() *planner.Board { return &s.board }

// Run serves until ctx ends, then shuts down gracefully. Running jobs are
// canceled on shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr, "goods", s.catalog.GoodCount(), "recipes", s.catalog.RecipeCount())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close cancels running jobs.
func (s *Server) Close() { s.cancel() }
