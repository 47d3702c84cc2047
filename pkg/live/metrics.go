package live

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumen-ui/lumen/pkg/diag"
)

// Metrics holds the server-level Prometheus instruments plus a diag
// collector for renderer events. All sessions share one Metrics.
type Metrics struct {
	sessionsActive prometheus.Gauge
	sessionsTotal  prometheus.Counter
	evictedTotal   prometheus.Counter
	eventsTotal    prometheus.Counter
	flushOps       prometheus.Histogram
	flushBytes     prometheus.Histogram

	renderSink *diag.Collector
}

// NewMetrics registers the live-server instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lumen_sessions_active",
			Help: "Currently connected sessions.",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_sessions_total",
			Help: "Sessions created since start.",
		}),
		evictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_sessions_evicted_total",
			Help: "Sessions evicted for idleness.",
		}),
		eventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_events_total",
			Help: "Client events processed.",
		}),
		flushOps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumen_flush_ops",
			Help:    "Document ops per flush.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		flushBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumen_flush_bytes",
			Help:    "Encoded bytes per flush.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		renderSink: diag.NewCollector(reg),
	}

	reg.MustRegister(
		m.sessionsActive,
		m.sessionsTotal,
		m.evictedTotal,
		m.eventsTotal,
		m.flushOps,
		m.flushBytes,
	)
	return m
}
