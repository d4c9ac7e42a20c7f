// Package metrics collects the node's operational counters — connections,
// activations, poll ticks — behind a prometheus.Registry that
// internal/debughttp exposes on the introspection port.
package metrics
