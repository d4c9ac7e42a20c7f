package dispatcher

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/secop/pkg/proto"
)

func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// NodeInfo is the static identity baked into the node descriptive JSON
// (spec §3.1/§4.4).
type NodeInfo struct {
	Description string
	EquipmentID string
	Firmware    string
}

// Dispatcher is the single-threaded router of spec §4.4. Construct with
// New, register modules with RegisterModule, then run the event loop with
// Run — all from the same goroutine that will own it.
type Dispatcher struct {
	log *logrus.Entry

	node NodeInfo
	// modulesDesc is the node descriptive's "modules" object, keyed by
	// module name; merged in from each module's own Describing message.
	modulesDesc map[string]interface{}

	modules map[string]chan<- Request
	active  map[string]map[HandlerID]bool
	clients map[HandlerID]chan proto.Msg

	connections chan Connection
	requests    chan Request
	replies     chan ModuleReply

	// globalActivateRemaining > 0 while a global activate is in flight;
	// only one may be outstanding at a time (spec §4.4).
	globalActivateRemaining int

	stop chan struct{}

	metrics MetricsSink
}

// MetricsSink is the subset of internal/metrics.Collector the dispatcher
// drives. Kept as a local interface so this package never imports
// internal/metrics directly.
type MetricsSink interface {
	Activated(module string)
	UpdateSent(module string)
}

// SetMetrics attaches a metrics sink. Safe to skip; a nil sink is a no-op.
func (d *Dispatcher) SetMetrics(m MetricsSink) {
	d.metrics = m
}

func (d *Dispatcher) observeActivated(module string) {
	if d.metrics != nil {
		d.metrics.Activated(module)
	}
}

func (d *Dispatcher) observeUpdateSent(module string) {
	if d.metrics != nil {
		d.metrics.UpdateSent(module)
	}
}

// New builds a Dispatcher. Modules must be registered with RegisterModule
// before Run starts processing activate/read/change/do traffic for them.
func New(node NodeInfo, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		log:         log.WithField("component", "dispatcher"),
		node:        node,
		modulesDesc: make(map[string]interface{}),
		modules:     make(map[string]chan<- Request),
		active:      make(map[string]map[HandlerID]bool),
		clients:     make(map[HandlerID]chan proto.Msg),
		connections: make(chan Connection, replyBuffer),
		requests:    make(chan Request, replyBuffer),
		replies:     make(chan ModuleReply, replyBuffer),
		stop:        make(chan struct{}),
	}
}

// RegisterModule wires a module's inbound request channel into the
// dispatcher's routing table and seeds its (initially empty) subscription
// set. Must happen before Run is started.
func (d *Dispatcher) RegisterModule(name string, reqCh chan<- Request) {
	d.modules[name] = reqCh
	d.active[name] = make(map[HandlerID]bool)
}

// Stop ends the event loop.
func (d *Dispatcher) Stop() {
	close(d.stop)
}

// Run processes the three inbound channels until Stop is called. It must
// run in its own goroutine.
func (d *Dispatcher) Run() {
	for {
		select {
		case conn := <-d.connections:
			d.clients[conn.ID] = conn.Reply

		case req := <-d.requests:
			d.handleRequest(req)

		case rep := <-d.replies:
			d.handleReply(rep)

		case <-d.stop:
			return
		}
	}
}

func (d *Dispatcher) sendBack(hid HandlerID, msg proto.Msg) {
	ch, ok := d.clients[hid]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		d.log.WithField("handler", hid).Warn("reply channel full, dropping message")
	}
}

func (d *Dispatcher) handleRequest(req Request) {
	hid, in := req.HID, req.Msg

	switch in.Msg.Kind {
	case proto.KindRead, proto.KindChange, proto.KindDo:
		d.forwardOrNoSuchModule(hid, in)

	case proto.KindActivate:
		d.handleActivate(hid, in)

	case proto.KindDeactivate:
		d.handleDeactivate(hid, in)

	case proto.KindDescribe:
		d.sendBack(hid, proto.NewDescribing(d.descriptiveSnapshot()))

	case proto.KindPing:
		// real TCP connections answer ping directly in internal/handler
		// without this round-trip; the loopback client has no such
		// shortcut, so the dispatcher answers it here too.
		d.sendBack(hid, proto.NewPong(in.Msg.Token, nowTimestamp()))

	case proto.KindQuit:
		delete(d.clients, hid)
		for _, set := range d.active {
			delete(set, hid)
		}

	default:
		d.log.WithField("kind", in.Msg.Kind).Warn("message should not arrive at the dispatcher")
	}
}

func (d *Dispatcher) forwardOrNoSuchModule(hid HandlerID, in proto.IncomingMsg) {
	ch, ok := d.modules[in.Msg.Module]
	if !ok {
		d.sendBack(hid, proto.NewError(in.Line, noSuchModule(in.Msg.Module)))
		return
	}
	ch <- Request{HID: hid, Msg: in}
}

func (d *Dispatcher) handleActivate(hid HandlerID, in proto.IncomingMsg) {
	module := in.Msg.Module
	if module != "" {
		d.forwardOrNoSuchModule(hid, in)
		return
	}

	if d.globalActivateRemaining > 0 {
		d.sendBack(hid, proto.NewError(in.Line, alreadyActivating()))
		return
	}
	if len(d.modules) == 0 {
		d.sendBack(hid, proto.NewActive(""))
		return
	}
	for _, ch := range d.modules {
		ch <- Request{HID: hid, Msg: in}
	}
	d.globalActivateRemaining = len(d.modules)
}

func (d *Dispatcher) handleDeactivate(hid HandlerID, in proto.IncomingMsg) {
	module := in.Msg.Module
	if module != "" {
		if _, ok := d.modules[module]; !ok {
			d.sendBack(hid, proto.NewError(in.Line, noSuchModule(module)))
			return
		}
		delete(d.active[module], hid)
	} else {
		for _, set := range d.active {
			delete(set, hid)
		}
	}
	d.sendBack(hid, proto.NewInactive(module))
}

func (d *Dispatcher) handleReply(rep ModuleReply) {
	if rep.HID == nil {
		d.handleUnsolicited(rep.Msg)
		return
	}
	hid := *rep.HID
	if rep.Init != nil {
		d.handleInitUpdates(hid, *rep.Init)
		return
	}
	d.sendBack(hid, rep.Msg)
}

func (d *Dispatcher) handleUnsolicited(msg proto.Msg) {
	switch msg.Kind {
	case proto.KindDescribing:
		d.modulesDesc[msg.Id] = msg.Value

	case proto.KindUpdate:
		d.observeUpdateSent(msg.Module)
		for hid := range d.active[msg.Module] {
			d.sendBack(hid, msg)
		}

	default:
		d.log.WithField("kind", msg.Kind).Warn("unexpected unsolicited module reply")
	}
}

// handleInitUpdates implements the two-phase activate protocol's
// completion side (spec §4.4): forward every update, then — for the
// single-module form immediately, for the global form once every module
// has replied — send `active` and subscribe hid.
func (d *Dispatcher) handleInitUpdates(hid HandlerID, init InitUpdates) {
	for _, upd := range init.Updates {
		d.sendBack(hid, upd)
	}

	if init.Module != "" {
		d.sendBack(hid, proto.NewActive(init.Module))
		d.active[init.Module][hid] = true
		d.observeActivated(init.Module)
		return
	}

	d.globalActivateRemaining--
	if d.globalActivateRemaining == 0 {
		d.sendBack(hid, proto.NewActive(""))
		for _, set := range d.active {
			set[hid] = true
		}
		d.observeActivated("")
	}
}

// descriptiveSnapshot builds the node descriptive JSON served by `describe`
// (spec §6 scenario 2). The modules map is copied so a later merge can't
// race a concurrent marshal of an earlier snapshot.
func (d *Dispatcher) descriptiveSnapshot() interface{} {
	modules := make(map[string]interface{}, len(d.modulesDesc))
	for k, v := range d.modulesDesc {
		modules[k] = v
	}
	return map[string]interface{}{
		"description":  d.node.Description,
		"equipment_id": d.node.EquipmentID,
		"firmware":     d.node.Firmware,
		"modules":      modules,
	}
}
