package dispatcher

import "github.com/nabbar/secop/pkg/proto"

// HandlerID identifies one client connection (a TCP handler or a loopback
// client). It is assigned by whoever owns connection acceptance; the
// dispatcher only ever compares and stores it.
type HandlerID uint64

// replyBuffer is the depth given to every channel the dispatcher owns.
// Go has no unbounded-channel primitive; this is the practical stand-in —
// generous enough that a module or handler never has to block a producer,
// with the hub.go drop-the-slow-client pattern as the overflow valve.
const replyBuffer = 256

// Connection registers hid's reply channel with the dispatcher, as if a new
// client had connected (also used by the loopback client).
type Connection struct {
	ID    HandlerID
	Reply chan proto.Msg
}

// Request is one client-originated message, forwarded either to a module
// or handled directly by the dispatcher.
type Request struct {
	HID HandlerID
	Msg proto.IncomingMsg
}

// InitUpdates is a module's answer to an Activate request: every update
// message representing the module's current cached parameter values,
// followed by the dispatcher-synthesized `active` once all modules
// involved in the activation have replied (spec §4.4/§4.5).
type InitUpdates struct {
	Module  string
	Updates []proto.Msg
}

// ModuleReply is what a module worker sends back to the dispatcher over
// the shared replies channel. HID is nil for unsolicited traffic
// (descriptive-JSON registration, broadcast updates); Init is non-nil only
// for the activate protocol's InitUpdates answer.
type ModuleReply struct {
	HID  *HandlerID
	Init *InitUpdates
	Msg  proto.Msg
}
