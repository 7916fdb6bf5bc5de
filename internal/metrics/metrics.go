// Package metrics records import outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/folio/internal/reconcile"
)

// Metrics implements reconcile.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	imports  *prometheus.CounterVec
	entries  *prometheus.CounterVec
	duration prometheus.Histogram
}

var _ reconcile.Recorder = (*Metrics)(nil)

// New creates the import metrics and registers them with reg. A nil reg
// uses a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "import",
				Name:      "runs_total",
				Help:      "Import runs by result.",
			},
			[]string{"result"},
		),
		entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "folio",
				Subsystem: "import",
				Name:      "entries_total",
				Help:      "Outcome report entries by level.",
			},
			[]string{"level"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "folio",
				Subsystem: "import",
				Name:      "duration_seconds",
				Help:      "Time spent reconciling a parsed snapshot.",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.imports, m.entries, m.duration)

	// Pre-create label sets so every series is exported from the start.
	for _, result := range []string{"ok", "errors", "rejected"} {
		m.imports.WithLabelValues(result)
	}
	for _, level := range []reconcile.Level{reconcile.LevelSuccess, reconcile.LevelError, reconcile.LevelWarning} {
		m.entries.WithLabelValues(string(level))
	}
	return m
}

// RecordImport counts a completed run and its entries.
func (m *Metrics) RecordImport(r *reconcile.Report, elapsed time.Duration) {
	result := "ok"
	if !r.OK() {
		result = "errors"
	}
	m.imports.WithLabelValues(result).Inc()
	m.entries.WithLabelValues(string(reconcile.LevelSuccess)).Add(float64(len(r.Success)))
	m.entries.WithLabelValues(string(reconcile.LevelError)).Add(float64(len(r.Error)))
	m.entries.WithLabelValues(string(reconcile.LevelWarning)).Add(float64(len(r.Warning)))
	m.duration.Observe(elapsed.Seconds())
}

// RecordRejected counts a snapshot that failed to parse.
func (m *Metrics) RecordRejected() {
	m.imports.WithLabelValues("rejected").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
