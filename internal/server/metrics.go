package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/tierplan/pkg/observability"
)

// Metrics is a set of Prometheus collectors fed by the observability hooks.
// It implements SolveHooks, CacheHooks and HTTPHooks.
type Metrics struct {
	solves        *prometheus.CounterVec
	solveDuration prometheus.Histogram
	modelSize     *prometheus.GaugeVec
	planRecipes   prometheus.Histogram
	deadlocks     prometheus.Counter
	cacheEvents   *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

var (
	_ observability.SolveHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierplan",
			Name:      "solves_total",
			Help:      "Finished solves by LP status.",
		}, []string{"status"}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tierplan",
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a solve, model construction included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		modelSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tierplan",
			Name:      "last_model_size",
			Help:      "Size of the most recently built linear program.",
		}, []string{"dimension"}),
		planRecipes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tierplan",
			Name:      "plan_recipes",
			Help:      "Recipes selected per successful solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		deadlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tierplan",
			Name:      "tier_deadlocks_total",
			Help:      "Solves whose tiering fell back to a single final tier.",
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierplan",
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierplan",
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type.",
		}, []string{"type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tierplan",
			Name:      "http_requests_total",
			Help:      "Served HTTP requests.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tierplan",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{
		m.solves, m.solveDuration, m.modelSize, m.planRecipes, m.deadlocks,
		m.cacheEvents, m.cacheBytes, m.requests, m.latency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Install makes m the process-wide receiver of observability hooks.
func (m *Metrics) Install() {
	observability.SetSolveHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnSolveStart(context.Context, int, int) {}

func (m *Metrics) OnModelBuilt(_ context.Context, variables, constraints int, _ time.Duration) {
	m.modelSize.WithLabelValues("variables").Set(float64(variables))
	m.modelSize.WithLabelValues("constraints").Set(float64(constraints))
}

func (m *Metrics) OnSolveComplete(_ context.Context, r observability.SolveResult) {
	status := r.Status
	if status == "" {
		status = "ERROR"
	}
	m.solves.WithLabelValues(status).Inc()
	m.solveDuration.Observe(r.Duration.Seconds())
	if r.Err == nil {
		m.planRecipes.Observe(float64(r.Recipes))
	}
	if r.Deadlock {
		m.deadlocks.Inc()
	}
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// observe reports every response to the HTTP hooks, labelled by the matched
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", d, "id", middleware.GetReqID(r.Context()))
	})
}
