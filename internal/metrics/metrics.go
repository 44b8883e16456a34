// Package metrics exposes Prometheus instrumentation for the API, the routine
// service and the chat assistant.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pawtine"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics owns a private registry so tests and binaries never collide on the
// global one. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry
	backend  string

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	routineOps     *prometheus.CounterVec
	chatSchedules  *prometheus.CounterVec
	chatRequests   *prometheus.CounterVec
	storeUp        prometheus.Gauge
	liveFeedEvents prometheus.Counter
}

// New registers every collector on a fresh registry. backend labels routine
// operations with the active store.
func New(backend string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		backend:  backend,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route pattern and status code.",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		routineOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "routines",
				Name:      "operations_total",
				Help:      "Routine service mutations by operation and outcome.",
			},
			[]string{"operation", "backend", "result"},
		),
		chatSchedules: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "schedule_attempts_total",
				Help:      "Routines the assistant tried to schedule, by outcome.",
			},
			[]string{"outcome"},
		),
		chatRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Chat completions by outcome.",
			},
			[]string{"result"},
		),
		storeUp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "up",
			Help:      "1 when the last store probe succeeded.",
		}),
		liveFeedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Revalidation events delivered to live sessions.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutineOp counts one routine service mutation.
func (m *Metrics) RoutineOp(operation string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.routineOps.WithLabelValues(operation, m.backend, result).Inc()
}

// ChatSchedule counts a scheduling attempt made on behalf of the assistant.
func (m *Metrics) ChatSchedule(outcome string) {
	if m == nil {
		return
	}
	m.chatSchedules.WithLabelValues(outcome).Inc()
}

// ChatRequest counts one chat completion.
func (m *Metrics) ChatRequest(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.chatRequests.WithLabelValues(result).Inc()
}

// SetStoreUp records the latest store probe.
func (m *Metrics) SetStoreUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeUp.Set(1)
		return
	}
	m.storeUp.Set(0)
}

// EventsPublished adds n delivered live feed events.
func (m *Metrics) EventsPublished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.liveFeedEvents.Add(float64(n))
}
