package dispatcher

import "github.com/nabbar/secop/pkg/proto"

// Handle is the capability every module worker and the loopback client
// construct from: a way to register a reply channel and a way to send
// requests, without reaching into the Dispatcher's internals or its event
// loop goroutine (Open Question 1 — see DESIGN.md).
type Handle struct {
	requests    chan<- Request
	connections chan<- Connection
	replies     chan<- ModuleReply
}

// Send forwards a client request to the dispatcher.
func (h Handle) Send(hid HandlerID, msg proto.IncomingMsg) {
	h.requests <- Request{HID: hid, Msg: msg}
}

// Register installs reply as hid's reply channel, as if hid had just
// connected.
func (h Handle) Register(hid HandlerID, reply chan proto.Msg) {
	h.connections <- Connection{ID: hid, Reply: reply}
}

// Unregister tells the dispatcher hid is gone; equivalent to the reader
// goroutine's synthesized Quit.
func (h Handle) Unregister(hid HandlerID) {
	h.requests <- Request{HID: hid, Msg: proto.IncomingMsg{Msg: proto.Quit}}
}

// Reply lets a module worker send a reply or unsolicited event back to the
// dispatcher.
func (h Handle) Reply(r ModuleReply) {
	h.replies <- r
}

// Handle returns the capability handed to module workers and the loopback
// client at construction time.
func (d *Dispatcher) Handle() Handle {
	return Handle{requests: d.requests, connections: d.connections, replies: d.replies}
}
