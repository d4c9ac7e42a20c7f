package dispatcher_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/secoperr"
	"github.com/nabbar/secop/pkg/proto"
)

// fakeModule stands in for internal/module in these tests: it answers
// activate requests only after release is signalled, letting a test hold
// open the "activation in progress" window deterministically.
type fakeModule struct {
	name    string
	reqCh   chan dispatcher.Request
	release chan struct{}
	updates []proto.Msg
	handle  dispatcher.Handle
}

func newFakeModule(name string, handle dispatcher.Handle, updates []proto.Msg) *fakeModule {
	m := &fakeModule{
		name:    name,
		reqCh:   make(chan dispatcher.Request, 16),
		release: make(chan struct{}, 16),
		updates: updates,
		handle:  handle,
	}
	go m.run()
	return m
}

func (m *fakeModule) run() {
	for req := range m.reqCh {
		hid := req.HID
		switch req.Msg.Msg.Kind {
		case proto.KindActivate:
			<-m.release
			m.handle.Reply(dispatcher.ModuleReply{
				HID:  &hid,
				Init: &dispatcher.InitUpdates{Module: req.Msg.Msg.Module, Updates: m.updates},
			})
		case proto.KindRead:
			m.handle.Reply(dispatcher.ModuleReply{
				HID: &hid,
				Msg: proto.NewUpdate(m.name, req.Msg.Msg.Accessible, 1.0, 1000.0),
			})
		}
	}
}

func (m *fakeModule) unblock() { m.release <- struct{}{} }

// newTestDispatcher builds a Dispatcher but does not start its event loop:
// RegisterModule must only ever be called before Run, since nothing but
// the Run goroutine touches the routing maps afterwards. Call start(d)
// once every module for the test is registered.
func newTestDispatcher() *dispatcher.Dispatcher {
	return dispatcher.New(dispatcher.NodeInfo{Description: "test node", EquipmentID: "eq1", Firmware: "test"}, nil)
}

func start(d *dispatcher.Dispatcher) {
	go d.Run()
	DeferCleanup(d.Stop)
}

func registerClient(d *dispatcher.Dispatcher, hid dispatcher.HandlerID) chan proto.Msg {
	reply := make(chan proto.Msg, 16)
	d.Handle().Register(hid, reply)
	return reply
}

func expectMsg(ch chan proto.Msg) proto.Msg {
	var m proto.Msg
	Eventually(ch).Should(Receive(&m))
	return m
}

var _ = Describe("Request routing", func() {
	It("replies NoSuchModule for an unknown module read", func() {
		d := newTestDispatcher()
		start(d)
		reply := registerClient(d, 1)

		incoming, _ := proto.Parse("read nonsuch:value")
		d.Handle().Send(1, incoming)

		m := expectMsg(reply)
		Expect(m.Kind).To(Equal(proto.KindError))
		Expect(m.Class).To(Equal(secoperr.ClassNoSuchModule))
	})

	It("answers describe with the cached node descriptive JSON", func() {
		d := newTestDispatcher()
		start(d)
		reply := registerClient(d, 1)

		incoming, _ := proto.Parse("describe")
		d.Handle().Send(1, incoming)

		m := expectMsg(reply)
		Expect(m.Kind).To(Equal(proto.KindDescribing))
		Expect(m.Id).To(Equal("."))
		structure, ok := m.Value.(map[string]interface{})
		Expect(ok).To(BeTrue())
		Expect(structure["equipment_id"]).To(Equal("eq1"))
	})
})

var _ = Describe("Activate ordering", func() {
	It("sends every parameter update before the active reply", func() {
		d := newTestDispatcher()
		updates := []proto.Msg{
			proto.NewUpdate("cryo", "value", 3.0, 1000.0),
			proto.NewUpdate("cryo", "status", []interface{}{int64(100), "idle"}, 1001.0),
		}
		mod := newFakeModule("cryo", d.Handle(), updates)
		d.RegisterModule("cryo", mod.reqCh)
		start(d)
		reply := registerClient(d, 1)

		incoming, _ := proto.Parse("activate cryo")
		d.Handle().Send(1, incoming)
		mod.unblock()

		first := expectMsg(reply)
		second := expectMsg(reply)
		third := expectMsg(reply)

		Expect(first.Kind).To(Equal(proto.KindUpdate))
		Expect(second.Kind).To(Equal(proto.KindUpdate))
		Expect(third.Kind).To(Equal(proto.KindActive))
		Expect(third.Module).To(Equal("cryo"))
	})

	It("never delivers updates for a module the client never activated", func() {
		d := newTestDispatcher()
		updates := []proto.Msg{proto.NewUpdate("cryo", "value", 3.0, 1000.0)}
		mod := newFakeModule("cryo", d.Handle(), updates)
		d.RegisterModule("cryo", mod.reqCh)
		start(d)
		watcher := registerClient(d, 1)
		other := registerClient(d, 2)

		incoming, _ := proto.Parse("activate cryo")
		d.Handle().Send(2, incoming)
		mod.unblock()

		Eventually(other).Should(Receive())
		Eventually(other).Should(Receive())
		Consistently(watcher, "100ms").ShouldNot(Receive())
	})
})

var _ = Describe("Global-activate exclusivity", func() {
	It("rejects an overlapping global activate with ProtocolError", func() {
		d := newTestDispatcher()
		mod := newFakeModule("cryo", d.Handle(), nil)
		d.RegisterModule("cryo", mod.reqCh)
		start(d)
		reply := registerClient(d, 1)

		first, _ := proto.Parse("activate")
		d.Handle().Send(1, first)

		second, _ := proto.Parse("activate")
		d.Handle().Send(1, second)

		m := expectMsg(reply)
		Expect(m.Kind).To(Equal(proto.KindError))
		Expect(m.Class).To(Equal(secoperr.ClassProtocolError))

		mod.unblock()
		done := expectMsg(reply)
		Expect(done.Kind).To(Equal(proto.KindActive))
		Expect(done.Module).To(Equal(""))

		// a new global activate now succeeds.
		third, _ := proto.Parse("activate")
		d.Handle().Send(1, third)
		mod.unblock()
		again := expectMsg(reply)
		Expect(again.Kind).To(Equal(proto.KindActive))
	})
})

var _ = Describe("Deactivate", func() {
	It("acknowledges immediately and drops the subscription", func() {
		d := newTestDispatcher()
		mod := newFakeModule("cryo", d.Handle(), []proto.Msg{})
		d.RegisterModule("cryo", mod.reqCh)
		start(d)
		reply := registerClient(d, 1)

		incoming, _ := proto.Parse("deactivate cryo")
		d.Handle().Send(1, incoming)

		m := expectMsg(reply)
		Expect(m.Kind).To(Equal(proto.KindInactive))
		Expect(m.Module).To(Equal("cryo"))
	})
})

var _ = Describe("Quit", func() {
	It("drops the handler without blocking", func() {
		d := newTestDispatcher()
		start(d)
		registerClient(d, 1)

		d.Handle().Unregister(1)
		time.Sleep(10 * time.Millisecond) // processed asynchronously; nothing to assert but no panic/deadlock
	})
})
