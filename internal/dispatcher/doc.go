// Package dispatcher implements the single-threaded routing hub that sits
// between connection handlers, module workers and the loopback client
// (spec.md §4.4). Every mutation of its internal maps happens inside the
// Run goroutine, so none of it needs a mutex — the only way in is a send on
// one of its three channels, wrapped for callers as a Handle.
package dispatcher
