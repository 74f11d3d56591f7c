// Package metrics exposes prometheus collectors for the API and the asset
// lifecycle. A nil *Metrics is valid and records nothing.
package metrics

import (
	"it-asset-tracker/internal/model"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asset_tracker"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	serialRenames  prometheus.Counter
	notifyFailures prometheus.Counter
}

// New creates Metrics with runtime collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_transitions_total",
			Help:      "Persisted asset status changes.",
		}, []string{"from", "to"}),
		serialRenames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_serial_renames_total",
			Help:      "Serial numbers rewritten by duplicate repair.",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.transitions,
		m.serialRenames,
		m.notifyFailures,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveTransition records a persisted status change.
func (m *Metrics) ObserveTransition(from, to model.Status) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// ObserveSerialRenames records n duplicate serial rewrites.
func (m *Metrics) ObserveSerialRenames(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.serialRenames.Add(float64(n))
}

// ObserveNotificationFailure records one undeliverable notification.
func (m *Metrics) ObserveNotificationFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
