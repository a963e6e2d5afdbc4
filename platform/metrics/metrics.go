// Package metrics exposes Prometheus collectors for the scan pipeline.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bezirk_scanner"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	scans             *prometheus.CounterVec
	extractionLatency *prometheus.HistogramVec
	resolutions       *prometheus.CounterVec
	tableImports      *prometheus.CounterVec
	activeSessions    prometheus.GaugeFunc
}

// New registers all collectors. activeSessions is sampled at scrape time
// and may be nil.
func New(activeSessions func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Sign scans by outcome.",
		}, []string{"outcome"}),
		extractionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Latency of the vision model call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "District resolutions by source (rule, table, unknown).",
		}, []string{"source"}),
		tableImports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_table_imports_total",
			Help:      "Lookup table uploads by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans,
		m.extractionLatency,
		m.resolutions,
		m.tableImports,
	)

	if activeSessions != nil {
		m.activeSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}, activeSessions)
		m.registry.MustRegister(m.activeSessions)
	}

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ScanFinished counts one scan. A nil *Metrics is a no-op, as are the
// other recorders.
func (m *Metrics) ScanFinished(outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
}

// ExtractionObserved records model latency.
func (m *Metrics) ExtractionObserved(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractionLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// Resolved counts a resolution by source.
func (m *Metrics) Resolved(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}

// TableImported counts an import attempt.
func (m *Metrics) TableImported(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.tableImports.WithLabelValues(result).Inc()
}
