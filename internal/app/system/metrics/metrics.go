// Package metrics exposes Prometheus instrumentation for the HTTP layer and
// the domain operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	reg prometheus.Gatherer

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	writes   *prometheus.CounterVec
	events   *prometheus.CounterVec
	repairs  prometheus.Counter
}

// New registers the collectors on reg. Passing a fresh prometheus.Registry
// keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		reg: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadhub_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "threadhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"route", "method"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadhub_writes_total",
			Help: "Domain writes by operation and result",
		}, []string{"operation", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadhub_events_published_total",
			Help: "Outbound events by routing key and result",
		}, []string{"key", "result"}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadhub_reconciler_repairs_total",
			Help: "Back-references restored by the reconciler",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.writes, m.events, m.repairs)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware records a request count and latency labelled by the chi route
// pattern, so /threads/{id} is one series regardless of id.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Write records the outcome of a domain write.
func (m *Metrics) Write(operation string, err error) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(operation, result(err)).Inc()
}

// Event records the outcome of an event publish.
func (m *Metrics) Event(key string, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(key, result(err)).Inc()
}

// Repaired adds n to the reconciler repair counter.
func (m *Metrics) Repaired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.repairs.Add(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
