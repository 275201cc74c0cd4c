// Package metrics exposes Prometheus counters for the import pipeline.
// Everything Prometheus-specific lives here; callers only see the Metrics
// methods, which are safe to call on a nil *Metrics.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	reg *prometheus.Registry

	imports       *prometheus.CounterVec   // productmap_imports_total
	records       *prometheus.CounterVec   // productmap_import_records_total
	matches       *prometheus.CounterVec   // productmap_matches_total
	pollErrors    prometheus.Counter       // productmap_job_poll_errors_total
	stageDuration *prometheus.HistogramVec // productmap_import_stage_duration_seconds
}

// New creates the collectors on a fresh registry, together with the Go and
// process collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "productmap_imports_total",
				Help: "Imports by type, mode and final status.",
			},
			[]string{"type", "mode", "status"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "productmap_import_records_total",
				Help: "Import rows by outcome (successful, failed, skipped).",
			},
			[]string{"type", "outcome"},
		),
		matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "productmap_matches_total",
				Help: "Supplier rows matched to a product, by match method.",
			},
			[]string{"method"},
		),
		pollErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "productmap_job_poll_errors_total",
				Help: "Failed status polls against the job API.",
			},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "productmap_import_stage_duration_seconds",
				Help:    "Duration of import stages in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 9),
			},
			[]string{"stage"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.imports, m.records, m.matches, m.pollErrors, m.stageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ImportFinished counts one import and its row outcomes.
func (m *Metrics) ImportFinished(importType, mode, status string, successful, failed, skipped int) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(importType, mode, status).Inc()
	m.records.WithLabelValues(importType, "successful").Add(float64(successful))
	m.records.WithLabelValues(importType, "failed").Add(float64(failed))
	m.records.WithLabelValues(importType, "skipped").Add(float64(skipped))
}

// Matched adds n matches for method.
func (m *Metrics) Matched(method string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matches.WithLabelValues(method).Add(float64(n))
}

// PollError counts one failed status poll.
func (m *Metrics) PollError() {
	if m == nil {
		return
	}
	m.pollErrors.Inc()
}

// ObserveStage records how long an import stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
