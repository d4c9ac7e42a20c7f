package module

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/pkg/datainfo"
	"github.com/nabbar/secop/pkg/proto"
)

// Worker runs one module's event loop. Build with New, register its
// RequestChannel with the dispatcher before the dispatcher's Run starts,
// then launch Supervise in its own goroutine.
type Worker struct {
	cfg    Config
	handle dispatcher.Handle
	log    *logrus.Entry

	// reqCh is the single channel the dispatcher routes this module's
	// traffic to. It survives every restart; only the state below it is
	// rebuilt per incarnation.
	reqCh chan dispatcher.Request

	hooks  Hooks
	cache  map[string]*cacheEntry
	params map[string]ParamSpec
	cmds   map[string]CommandSpec

	normalPeriod time.Duration
	normalTick   *time.Ticker
	busyTick     *time.Ticker
	tickCount    int64

	metrics MetricsSink
}

// MetricsSink is the subset of internal/metrics.Collector a Worker drives.
// Kept as a local interface so this package never imports internal/metrics
// directly.
type MetricsSink interface {
	Polled(module, parameter string)
	IncarnationPanicked(module string)
}

// SetMetrics attaches a metrics sink. Safe to skip; a nil sink is a no-op.
func (w *Worker) SetMetrics(m MetricsSink) {
	w.metrics = m
}

// New builds a Worker. reqCh must be the same channel passed to the
// dispatcher's RegisterModule.
func New(cfg Config, reqCh chan dispatcher.Request, handle dispatcher.Handle, log *logrus.Entry) *Worker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Worker{
		cfg:    cfg,
		handle: handle,
		log:    log.WithField("module", cfg.Name),
		reqCh:  reqCh,
	}
}

// RequestChannel returns the channel to pass to dispatcher.RegisterModule.
func (w *Worker) RequestChannel() chan dispatcher.Request {
	return w.reqCh
}

// Name returns the module's configured name.
func (w *Worker) Name() string {
	return w.cfg.Name
}

// Supervise runs the module forever, restarting a fresh incarnation after
// any panic (spec §4.5's supervisor). It blocks; call it in its own
// goroutine. Requests queued at the moment of a panic are drained and
// discarded; the request that arrives once the module is quiet again is
// replayed into the new incarnation rather than lost.
func (w *Worker) Supervise() {
	var replay *dispatcher.Request
	for {
		next := w.runIncarnation(replay)
		replay = next
	}
}

func (w *Worker) runIncarnation(replay *dispatcher.Request) (next *dispatcher.Request) {
	defer func() {
		if r := recover(); r != nil {
			w.log.WithField("panic", fmt.Sprintf("%v", r)).Error("module worker panicked, restarting")
			if w.metrics != nil {
				w.metrics.IncarnationPanicked(w.cfg.Name)
			}
			w.drain()
			req := <-w.reqCh
			next = &req
		}
	}()
	w.runOnce(replay)
	return nil
}

func (w *Worker) drain() {
	for {
		select {
		case <-w.reqCh:
		default:
			return
		}
	}
}

// runOnce is one incarnation's full lifetime: fresh hooks, init_params,
// setup, descriptive announcement, then the event loop. Any error here
// panics, so Supervise's recover handles both init failures and runtime
// panics through the same restart path.
func (w *Worker) runOnce(replay *dispatcher.Request) {
	w.hooks = w.cfg.NewHooks()
	w.cache = make(map[string]*cacheEntry, len(w.cfg.Params))
	w.params = make(map[string]ParamSpec, len(w.cfg.Params))
	w.cmds = make(map[string]CommandSpec, len(w.cfg.Commands))
	for _, p := range w.cfg.Params {
		w.params[p.Name] = p
	}
	for _, c := range w.cfg.Commands {
		w.cmds[c.Name] = c
	}

	w.initParams()

	if err := w.hooks.Setup(); err != nil {
		panic(fmt.Errorf("setup: %w", err))
	}

	w.handle.Reply(dispatcher.ModuleReply{
		Msg: proto.Msg{Kind: proto.KindDescribing, Id: w.cfg.Name, Value: w.hooks.Describe()},
	})

	w.normalPeriod = w.cfg.normalPeriod()
	w.normalTick = time.NewTicker(w.normalPeriod)
	w.busyTick = time.NewTicker(w.normalPeriod / 5)
	defer w.normalTick.Stop()
	defer w.busyTick.Stop()

	if replay != nil {
		w.handleRequest(*replay)
	}

	var busyTicks int64
	for {
		select {
		case req := <-w.reqCh:
			w.handleRequest(req)
		case <-w.normalTick.C:
			w.tickCount++
			w.pollNormal(w.tickCount)
		case <-w.busyTick.C:
			busyTicks++
			w.pollBusy(busyTicks)
		}
	}
}

// initParams implements spec §4.5's startup decision table: for every
// declared parameter, decide (from SoftwareOnly, ReadOnly, whether a config
// override and a Default are present) whether to decode the config value
// straight into the cache, call Change, call Read, or fail startup outright.
func (w *Worker) initParams() {
	for _, p := range w.cfg.Params {
		cfgVal, hasCfg := w.cfg.ConfigValues[p.Name]
		var defVal interface{}
		hasDefault := p.Default != nil
		if hasDefault {
			defVal = p.Default()
		}

		switch {
		case p.SoftwareOnly && hasCfg:
			decoded, err := p.Type.Decode(cfgVal)
			if err != nil {
				panic(fmt.Errorf("init %s: %w", p.Name, err))
			}
			w.store(p.Name, decoded)

		case p.SoftwareOnly && !p.ReadOnly && !hasCfg && hasDefault:
			w.store(p.Name, defVal)
			w.notifyUpdated(p.Name, defVal)

		case p.SoftwareOnly && p.ReadOnly && !hasCfg && hasDefault:
			w.store(p.Name, defVal)

		case p.SoftwareOnly && !hasCfg && !hasDefault:
			panic(fmt.Errorf("init %s: software-only parameter has neither a config value nor a default", p.Name))

		case !p.SoftwareOnly && !p.ReadOnly && hasCfg:
			decoded, err := p.Type.Decode(cfgVal)
			if err != nil {
				panic(fmt.Errorf("init %s: %w", p.Name, err))
			}
			result, err := w.hooks.Change(p.Name, decoded)
			if err != nil {
				panic(fmt.Errorf("init %s: %w", p.Name, err))
			}
			w.store(p.Name, result)

		case !p.SoftwareOnly && !p.ReadOnly && !hasCfg && hasDefault:
			result, err := w.hooks.Change(p.Name, defVal)
			if err != nil {
				panic(fmt.Errorf("init %s: %w", p.Name, err))
			}
			w.store(p.Name, result)

		default:
			// !SoftwareOnly && (ReadOnly || (!hasCfg && !hasDefault)): pull
			// whatever the hardware currently reports.
			result, err := w.hooks.Read(p.Name)
			if err != nil {
				panic(fmt.Errorf("init %s: %w", p.Name, err))
			}
			w.store(p.Name, result)
		}
	}
}

func (w *Worker) isBusy() bool {
	st, ok := w.cache["status"]
	if !ok {
		return false
	}
	return datainfo.IsBusy(st.value)
}

func (w *Worker) pollNormal(tick int64) {
	busy := w.isBusy()
	for _, p := range w.cfg.Params {
		switch {
		case p.Polling > 0:
			if busy {
				continue // the busy ticker covers this parameter this cycle
			}
			if tick%int64(p.Polling) == 0 {
				w.poll(p.Name)
			}
		case p.Polling < 0:
			if tick%int64(-p.Polling) == 0 {
				w.poll(p.Name)
			}
		}
	}
}

func (w *Worker) pollBusy(tick int64) {
	if !w.isBusy() {
		return
	}
	for _, p := range w.cfg.Params {
		if p.Polling > 0 && tick%int64(p.Polling) == 0 {
			w.poll(p.Name)
		}
	}
}

// reconfigureTickers implements spec §4.5's live pollinterval: a write to
// the "pollinterval" parameter recreates both tickers from its new value
// (seconds), the busy ticker always T_n/5.
func (w *Worker) reconfigureTickers(value interface{}) {
	seconds, ok := toSeconds(value)
	if !ok || seconds <= 0 {
		return
	}
	w.normalPeriod = time.Duration(seconds * float64(time.Second))
	w.normalTick.Stop()
	w.busyTick.Stop()
	w.normalTick = time.NewTicker(w.normalPeriod)
	w.busyTick = time.NewTicker(w.normalPeriod / 5)
}

func toSeconds(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// notifyUpdated calls the hooks' Updated method, if it implements
// UpdateNotifier. A no-op otherwise.
func (w *Worker) notifyUpdated(param string, value interface{}) {
	if n, ok := w.hooks.(UpdateNotifier); ok {
		n.Updated(param, value)
	}
}

func (w *Worker) poll(param string) {
	if w.metrics != nil {
		w.metrics.Polled(w.cfg.Name, param)
	}
	value, err := w.hooks.Read(param)
	if err != nil {
		w.log.WithField("param", param).WithError(err).Warn("poll failed")
		return
	}
	if w.store(param, value) {
		w.handle.Reply(dispatcher.ModuleReply{Msg: proto.NewUpdate(w.cfg.Name, param, value, w.cache[param].ts)})
	}
}
