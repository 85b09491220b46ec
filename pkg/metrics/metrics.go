// Package metrics exposes the Prometheus collectors of the staking service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"
)

func (o Outcome) String() string {
	return string(o)
}

const unmatchedRoute = "unmatched"

var defaultHistogramBucketsSeconds = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5}

// Metrics owns a private registry so tests and multiple servers don't collide
type Metrics struct {
	registry            *prometheus.Registry
	httpRequestDuration *prometheus.HistogramVec
	storeLatency        *prometheus.HistogramVec
	ledgerEvents        *prometheus.CounterVec
	publishErrors       prometheus.Counter
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of incoming HTTP request durations in seconds.",
				Buckets: defaultHistogramBucketsSeconds,
			},
			[]string{"method", "route", "status"},
		),
		storeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_latency_seconds",
				Help:    "Store transaction latency in seconds split by method and outcome.",
				Buckets: defaultHistogramBucketsSeconds,
			},
			[]string{"method", "status"},
		),
		ledgerEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_total",
				Help: "Number of committed ledger events by type.",
			},
			[]string{"event"},
		),
		publishErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "queue_publish_error_count",
				Help: "The total number of errors when publishing ledger events to the queue.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestDuration,
		m.storeLatency,
		m.ledgerEvents,
		m.publishErrors,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordStoreLatency observes a single store transaction
func (m *Metrics) RecordStoreLatency(d time.Duration, method string, failure bool) {
	m.storeLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

// RecordEvent counts a committed ledger event
func (m *Metrics) RecordEvent(event string) {
	m.ledgerEvents.WithLabelValues(event).Inc()
}

// RecordPublishError counts a failed queue publish
func (m *Metrics) RecordPublishError() {
	m.publishErrors.Inc()
}

// Middleware observes request durations labelled by the matched ServeMux pattern.
// It must wrap the mux directly so the pattern is visible after serving.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		m.httpRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func outcome(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}
