package module_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/module"
	"github.com/nabbar/secop/pkg/datainfo"
	"github.com/nabbar/secop/pkg/proto"
)

// testHooks is a minimal stand-in for a hardware-backed module used across
// these specs: a writable "value" double, a software-only read-only
// "status", and a software-only writable "pollinterval".
type testHooks struct {
	mu        sync.Mutex
	value     float64
	temp      float64
	panicOnce bool
	readErr   error
}

func (h *testHooks) Describe() interface{} { return map[string]interface{}{} }
func (h *testHooks) Setup() error          { return nil }

func (h *testHooks) Read(param string) (interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if param == "value" {
		if h.panicOnce {
			h.panicOnce = false
			panic("simulated hardware fault")
		}
		if h.readErr != nil {
			return nil, h.readErr
		}
		return h.value, nil
	}
	if param == "temperature" {
		return h.temp, nil
	}
	return nil, fmt.Errorf("unsupported read %s", param)
}

func (h *testHooks) Change(param string, value interface{}) (interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if param == "value" {
		h.value = value.(float64)
		return h.value, nil
	}
	return value, nil
}

func (h *testHooks) Do(command string, arg interface{}) (interface{}, error) {
	return nil, fmt.Errorf("unsupported command %s", command)
}

func (h *testHooks) set(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = v
}

func (h *testHooks) setTemp(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.temp = v
}

func doubleType() datainfo.Descriptor { return datainfo.Double(datainfo.DoubleOpt{}) }

func baseParams() []module.ParamSpec {
	return []module.ParamSpec{
		{Name: "value", Type: doubleType()},
		{
			Name: "status", Type: datainfo.StatusType, SoftwareOnly: true, ReadOnly: true,
			Default: func() interface{} { return datainfo.StatusValue(datainfo.StatusIdle, "idle") },
		},
		{
			Name: "pollinterval", Type: doubleType(), SoftwareOnly: true,
			Default: func() interface{} { return 1.0 },
		},
	}
}

// harness wires one Worker to a real Dispatcher so activate/update traffic
// exercises the exact same path production code does.
type harness struct {
	d     *dispatcher.Dispatcher
	hooks *testHooks
	w     *module.Worker
}

func newHarness(extra ...module.ParamSpec) *harness {
	d := dispatcher.New(dispatcher.NodeInfo{Description: "test"}, nil)
	hooks := &testHooks{value: 5.0}

	reqCh := make(chan dispatcher.Request, 16)
	cfg := module.Config{
		Name:         "m",
		Params:       append(baseParams(), extra...),
		NormalPeriod: 25 * time.Millisecond,
		NewHooks:     func() module.Hooks { return hooks },
	}
	w := module.New(cfg, reqCh, d.Handle(), nil)
	d.RegisterModule("m", reqCh)

	return &harness{d: d, hooks: hooks, w: w}
}

func (h *harness) start() {
	go h.d.Run()
	go h.w.Supervise()
	DeferCleanup(h.d.Stop)
}

func (h *harness) client(hid dispatcher.HandlerID) chan proto.Msg {
	reply := make(chan proto.Msg, 32)
	h.d.Handle().Register(hid, reply)
	return reply
}

func expect(ch chan proto.Msg) proto.Msg {
	var m proto.Msg
	Eventually(ch, 2*time.Second).Should(Receive(&m))
	return m
}

var _ = Describe("init_params", func() {
	It("pulls a hardware-backed parameter with no config or default via Read", func() {
		h := newHarness()
		h.start()
		reply := h.client(1)

		in, _ := proto.Parse("read m:value")
		h.d.Handle().Send(1, in)

		m := expect(reply)
		Expect(m.Kind).To(Equal(proto.KindUpdate))
		Expect(m.Value).To(Equal(5.0))
	})

	It("seeds a software-only default without touching hardware", func() {
		h := newHarness()
		h.start()
		reply := h.client(1)

		in, _ := proto.Parse("read m:pollinterval")
		h.d.Handle().Send(1, in)

		m := expect(reply)
		Expect(m.Value).To(Equal(1.0))
	})
})

var _ = Describe("Activate", func() {
	It("reports only populated cache entries", func() {
		h := newHarness()
		h.start()
		reply := h.client(1)

		in, _ := proto.Parse("activate m")
		h.d.Handle().Send(1, in)

		seen := map[string]bool{}
		for i := 0; i < 3; i++ {
			m := expect(reply)
			if m.Kind == proto.KindUpdate {
				seen[m.Accessible] = true
			}
		}
		final := expect(reply)
		Expect(final.Kind).To(Equal(proto.KindActive))
		Expect(seen).To(HaveKey("value"))
		Expect(seen).To(HaveKey("status"))
		Expect(seen).To(HaveKey("pollinterval"))
	})
})

var _ = Describe("Change", func() {
	It("acknowledges the writer and broadcasts to other subscribers only when the value actually changes", func() {
		h := newHarness()
		h.start()
		writer := h.client(1)
		watcher := h.client(2)

		actIn, _ := proto.Parse("activate m")
		h.d.Handle().Send(2, actIn)
		for i := 0; i < 4; i++ {
			expect(watcher)
		}

		chIn, _ := proto.Parse(`change m:value 9.5`)
		h.d.Handle().Send(1, chIn)

		changed := expect(writer)
		Expect(changed.Kind).To(Equal(proto.KindChanged))
		Expect(changed.Value).To(Equal(9.5))

		update := expect(watcher)
		Expect(update.Kind).To(Equal(proto.KindUpdate))
		Expect(update.Accessible).To(Equal("value"))
		Expect(update.Value).To(Equal(9.5))

		// setting the same value again elides the broadcast.
		chIn2, _ := proto.Parse(`change m:value 9.5`)
		h.d.Handle().Send(1, chIn2)
		expect(writer) // the Changed ack is still sent every time

		Consistently(watcher, "150ms").ShouldNot(Receive())
	})
})

// notingHooks has no hardware-backed parameters; it only records every
// Updated call, to verify the software-only update-hook path.
type notingHooks struct {
	mu      sync.Mutex
	updates []string
}

func (h *notingHooks) Describe() interface{} { return map[string]interface{}{} }
func (h *notingHooks) Setup() error          { return nil }
func (h *notingHooks) Read(param string) (interface{}, error) {
	return nil, fmt.Errorf("no hardware-backed parameter %s", param)
}
func (h *notingHooks) Change(param string, value interface{}) (interface{}, error) {
	return value, nil
}
func (h *notingHooks) Do(command string, arg interface{}) (interface{}, error) {
	return nil, fmt.Errorf("no command %s", command)
}
func (h *notingHooks) Updated(param string, value interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, fmt.Sprintf("%s=%v", param, value))
}
func (h *notingHooks) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.updates...)
}

var _ = Describe("UpdateNotifier", func() {
	It("calls Updated for a software-only writable parameter's startup default and for a later Change", func() {
		d := dispatcher.New(dispatcher.NodeInfo{Description: "test"}, nil)
		hooks := &notingHooks{}
		reqCh := make(chan dispatcher.Request, 16)
		cfg := module.Config{
			Name: "n",
			Params: []module.ParamSpec{
				{Name: "knob", Type: doubleType(), SoftwareOnly: true, Default: func() interface{} { return 1.0 }},
			},
			NormalPeriod: 25 * time.Millisecond,
			NewHooks:     func() module.Hooks { return hooks },
		}
		w := module.New(cfg, reqCh, d.Handle(), nil)
		d.RegisterModule("n", reqCh)
		go d.Run()
		go w.Supervise()
		DeferCleanup(d.Stop)

		Eventually(hooks.snapshot).Should(ContainElement("knob=1"))

		writer := make(chan proto.Msg, 32)
		d.Handle().Register(1, writer)
		in, _ := proto.Parse("change n:knob 2.5")
		d.Handle().Send(1, in)
		Expect(expect(writer).Kind).To(Equal(proto.KindChanged))

		Eventually(hooks.snapshot).Should(ContainElement("knob=2.5"))
	})
})

var _ = Describe("Polling", func() {
	It("picks up an out-of-band hardware change on the next normal tick", func() {
		h := newHarness(module.ParamSpec{Name: "temperature", Type: doubleType(), Polling: -1})
		h.start()
		watcher := h.client(1)
		in, _ := proto.Parse("activate m")
		h.d.Handle().Send(1, in)
		for i := 0; i < 5; i++ {
			expect(watcher)
		}

		h.hooks.setTemp(42.0)

		Eventually(func() bool {
			select {
			case m := <-watcher:
				return m.Kind == proto.KindUpdate && m.Accessible == "temperature" && m.Value == 42.0
			default:
				return false
			}
		}, 2*time.Second, 10*time.Millisecond).Should(BeTrue())
	})
})

var _ = Describe("Restart after panic", func() {
	It("recovers and serves the next request after a hook panics", func() {
		h := newHarness()
		h.hooks.panicOnce = true
		h.start()
		reply := h.client(1)

		// the panic already fired in init_params' startup Read of value; the
		// worker drained and now waits, so this read is the one that gets
		// replayed into the restarted incarnation.
		bad, _ := proto.Parse("read m:value")
		h.d.Handle().Send(1, bad)

		// reqCh is buffered, so this send never blocks regardless of how far
		// along the supervisor's recovery is.
		good, _ := proto.Parse("read m:value")
		h.d.Handle().Send(1, good)

		m := expect(reply)
		Expect(m.Kind).To(Equal(proto.KindUpdate))
		Expect(m.Value).To(Equal(5.0))
	})
})
