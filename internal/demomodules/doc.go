// Package demomodules provides two illustrative modules for a node with no
// real hardware attached yet: Cryo, a simulated temperature controller that
// ramps toward a target, and Link, a stand-in for a serial/TCP peer that
// Cryo drives over the loopback client on every target change.
package demomodules
