// Package metrics holds the Prometheus collectors for conversions and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	conversionsTotal *prometheus.CounterVec
	phaseDuration    *prometheus.HistogramVec
	chaptersPerDoc   prometheus.Histogram
	cleanupTotal     *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdf2md_conversions_total",
				Help: "Total number of document conversions",
			},
			[]string{"format", "method", "status"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdf2md_phase_duration_seconds",
				Help:    "Duration of each conversion phase",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"phase"},
		),
		chaptersPerDoc: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pdf2md_chapters_per_document",
				Help:    "Number of chapters detected per document",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
			},
		),
		cleanupTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdf2md_cleanup_requests_total",
				Help: "Total number of chapter cleanup requests",
			},
			[]string{"status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdf2md_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "pdf2md_http_request_duration_seconds",
				Help: "Duration of HTTP requests",
			},
			[]string{"method", "route"},
		),
	}
	m.registry.MustRegister(
		m.conversionsTotal,
		m.phaseDuration,
		m.chaptersPerDoc,
		m.cleanupTotal,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObservePhase records how long a conversion phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveConversion counts a finished conversion. method is empty when the
// run failed before extraction.
func (m *Metrics) ObserveConversion(format, method string, err error) {
	if m == nil {
		return
	}
	m.conversionsTotal.WithLabelValues(format, method, status(err)).Inc()
}

// ObserveChapters records the chapter count of one document.
func (m *Metrics) ObserveChapters(n int) {
	if m == nil {
		return
	}
	m.chaptersPerDoc.Observe(float64(n))
}

// ObserveCleanup counts one cleanup call.
func (m *Metrics) ObserveCleanup(err error) {
	if m == nil {
		return
	}
	m.cleanupTotal.WithLabelValues(status(err)).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
