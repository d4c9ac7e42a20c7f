// Package loopback implements the in-process client of spec §4.6: a
// HandlerID and a private reply channel registered with the dispatcher as
// if it were a connection, letting one module drive another (or a test)
// through the exact same validated path an external client would use.
package loopback
