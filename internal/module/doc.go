// Package module implements the per-module worker goroutine: parameter
// cache, init_params startup sequencing, the normal/busy polling tickers,
// and the panic-recovering supervisor loop (spec §4.5).
//
// A concrete module (e.g. a Cryostat) supplies a Hooks implementation plus
// its static Params/Commands declaration; Worker does everything generic
// around that: deciding how each parameter gets its first value, answering
// read/change/do/activate requests, and polling at the right cadence.
package module
