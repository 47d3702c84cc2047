package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector is a Sink backed by Prometheus metrics.
// It counts failures and renders and tracks keyed-list reorder cost,
// so the effectiveness of minimal-move ordering is observable in
// production without any log scraping.
type Collector struct {
	listenerFailures  prometheus.Counter
	finalizerFailures prometheus.Counter
	renderFailures    prometheus.Counter
	portalMisses      prometheus.Counter
	keyCollisions     prometheus.Counter
	renders           prometheus.Counter
	suspenseResolved  prometheus.Counter
	listReorders      prometheus.Counter
	listMoves         prometheus.Histogram
	listStable        prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil registerer uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		listenerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_listener_failures_total",
			Help: "Signal listeners that panicked during notification.",
		}),
		finalizerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_finalizer_failures_total",
			Help: "Scope finalizers that panicked during close.",
		}),
		renderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_render_failures_total",
			Help: "Component renders that returned an error.",
		}),
		portalMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_portal_misses_total",
			Help: "Portal mounts whose target could not be resolved.",
		}),
		keyCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_key_collisions_total",
			Help: "Keyed-list updates that contained duplicate keys.",
		}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_renders_total",
			Help: "Completed component render phases.",
		}),
		suspenseResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_suspense_resolved_total",
			Help: "Suspended subtrees that swapped in their content.",
		}),
		listReorders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_list_reorders_total",
			Help: "Keyed-list structural updates applied.",
		}),
		listMoves: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumen_list_moves",
			Help:    "Node moves per keyed-list update.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		listStable: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lumen_list_stable_nodes",
			Help:    "Retained nodes left in place per keyed-list update.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	reg.MustRegister(
		c.listenerFailures, c.finalizerFailures, c.renderFailures,
		c.portalMisses, c.keyCollisions, c.renders, c.suspenseResolved,
		c.listReorders, c.listMoves, c.listStable,
	)
	return c
}

// Emit implements Sink.
func (c *Collector) Emit(e Event) {
	switch e.Kind {
	case KindListenerFailure:
		c.listenerFailures.Inc()
	case KindFinalizerFailure:
		c.finalizerFailures.Inc()
	case KindRenderFailure:
		c.renderFailures.Inc()
	case KindPortalMiss:
		c.portalMisses.Inc()
	case KindKeyCollision:
		c.keyCollisions.Inc()
	case KindRenderDone:
		c.renders.Inc()
	case KindSuspenseResolved:
		c.suspenseResolved.Inc()
	case KindListReorder:
		c.listReorders.Inc()
		c.listMoves.Observe(float64(e.Moves))
		c.listStable.Observe(float64(e.Stable))
	}
}

// Tee fans one event out to multiple sinks.
type Tee []Sink

// Emit implements Sink.
func (t Tee) Emit(e Event) {
	for _, s := range t {
		s.Emit(e)
	}
}
