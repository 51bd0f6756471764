// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter increment outcomes.
const (
	OutcomeCounted        = "counted"
	OutcomeAlreadyCounted = "already_counted"
	OutcomeError          = "error"
)

// Metrics holds every collector of the service on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	CounterIncrements *prometheus.CounterVec
	CounterBumps      prometheus.Counter
	EventsPublished   *prometheus.CounterVec
	EventHandlerFails *prometheus.CounterVec
	JobRuns           *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CounterIncrements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "counter_increments_total",
				Help: "Visitor counter increment attempts by outcome",
			},
			[]string{"outcome"},
		),
		CounterBumps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "counter_bumps_total",
				Help: "Scheduled counter bumps applied",
			},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_published_total",
				Help: "Domain events published on the in-process bus",
			},
			[]string{"type"},
		),
		EventHandlerFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_handler_failures_total",
				Help: "Event handler errors and panics",
			},
			[]string{"type"},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_job_runs_total",
				Help: "Scheduled job executions by result",
			},
			[]string{"job", "result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.CounterIncrements,
		m.CounterBumps,
		m.EventsPublished,
		m.EventHandlerFails,
		m.JobRuns,
	)
	return m
}

// Registry exposes the registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request. route is the router pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveIncrement records one counter increment attempt.
func (m *Metrics) ObserveIncrement(outcome string) {
	if m == nil {
		return
	}
	m.CounterIncrements.WithLabelValues(outcome).Inc()
}

// ObserveBump records one applied bump.
func (m *Metrics) ObserveBump() {
	if m == nil {
		return
	}
	m.CounterBumps.Inc()
}

// ObservePublish records one published event.
func (m *Metrics) ObservePublish(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// ObserveHandlerFailure records a failed event handler.
func (m *Metrics) ObserveHandlerFailure(eventType string) {
	if m == nil {
		return
	}
	m.EventHandlerFails.WithLabelValues(eventType).Inc()
}

// ObserveJob records a scheduled job run. result is "success" or "failure".
func (m *Metrics) ObserveJob(job, result string) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, result).Inc()
}
