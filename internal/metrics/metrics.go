package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every counter/gauge the node publishes. It owns its own
// prometheus.Registry rather than using the global default one, so a test
// (or a second node in the same process) never collides with another's
// metric names.
type Collector struct {
	registry *prometheus.Registry

	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	activationsTotal  *prometheus.CounterVec
	pollTicksTotal    *prometheus.CounterVec
	updatesSentTotal  *prometheus.CounterVec
	panicsTotal       *prometheus.CounterVec
}

// New builds a Collector and registers every metric with a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "secop",
			Name:      "connections_total",
			Help:      "Total TCP connections accepted since startup.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "secop",
			Name:      "connections_active",
			Help:      "Currently open TCP connections.",
		}),
		activationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secop",
			Name:      "activations_total",
			Help:      "Total activate requests handled, by module (\"\" is the global form).",
		}, []string{"module"}),
		pollTicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secop",
			Name:      "poll_ticks_total",
			Help:      "Total parameter polls performed, by module and parameter.",
		}, []string{"module", "parameter"}),
		updatesSentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secop",
			Name:      "updates_sent_total",
			Help:      "Total update messages broadcast, by module.",
		}, []string{"module"}),
		panicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "secop",
			Name:      "module_panics_total",
			Help:      "Total times a module's incarnation panicked and was restarted.",
		}, []string{"module"}),
	}

	c.registry.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.activationsTotal,
		c.pollTicksTotal,
		c.updatesSentTotal,
		c.panicsTotal,
	)
	return c
}

// Registry exposes the collector's registry so internal/debughttp can serve
// it over /metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ConnectionOpened records an accepted TCP connection.
func (c *Collector) ConnectionOpened() {
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

// ConnectionClosed records an accepted TCP connection going away.
func (c *Collector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

// Activated records one successful activate, module == "" for the global
// form (spec §4.4).
func (c *Collector) Activated(module string) {
	c.activationsTotal.WithLabelValues(module).Inc()
}

// Polled records one poll-driven read of module:parameter (spec §4.5).
func (c *Collector) Polled(module, parameter string) {
	c.pollTicksTotal.WithLabelValues(module, parameter).Inc()
}

// UpdateSent records one broadcast update for module.
func (c *Collector) UpdateSent(module string) {
	c.updatesSentTotal.WithLabelValues(module).Inc()
}

// IncarnationPanicked records a module worker's panic-and-restart (spec
// §4.5's supervisor).
func (c *Collector) IncarnationPanicked(module string) {
	c.panicsTotal.WithLabelValues(module).Inc()
}
