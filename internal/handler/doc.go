// Package handler runs the two goroutines owning one TCP connection (spec
// §4.3): the reader decodes lines and forwards them to the dispatcher
// (answering ping/*IDN? directly, bypassing the dispatcher round-trip), the
// writer drains the connection's reply channel and flushes formatted lines.
package handler
