// Package debughttp serves a small read-only introspection surface — node
// status and the Prometheus exposition format — on a second, operator-only
// listener (spec §2.2/§6's expansion: never the SECoP wire port itself).
package debughttp
