// Package node wires one SECoP node's components together — the
// dispatcher, one worker per configured module, the TCP listener and the
// optional debug HTTP listener — and owns their combined startup and
// shutdown.
package node
