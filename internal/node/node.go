package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/secop/internal/config"
	"github.com/nabbar/secop/internal/debughttp"
	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/handler"
	"github.com/nabbar/secop/internal/metrics"
	"github.com/nabbar/secop/internal/module"
	"github.com/nabbar/secop/internal/secoperr"
	"github.com/nabbar/secop/pkg/proto"
)

// reloadHID is the HandlerID the node registers for its own SIGHUP-driven
// parameter relays (ApplyReload) — well above the TCP accept loop's range
// and demomodules' loopback range so none of the three ever collide.
const reloadHID dispatcher.HandlerID = 1 << 56

// moduleRequestBuffer mirrors the dispatcher's own channel depth.
const moduleRequestBuffer = 256

// debugShutdownTimeout bounds how long Run waits for the introspection
// server's in-flight requests to finish on shutdown.
const debugShutdownTimeout = 5 * time.Second

// Factory builds one module's static Config from its `[modules.<name>]`
// table. handle is the same capability passed to every Worker, for
// factories whose hooks need a loopback client to another module.
// Registered per Class string with RegisterFactory.
type Factory func(name string, cfg config.ModuleConfig, handle dispatcher.Handle) (module.Config, error)

// Node owns one SECoP node end to end: the dispatcher, every module worker,
// the TCP listener and the optional debug HTTP listener.
type Node struct {
	log     *logrus.Entry
	info    dispatcher.NodeInfo
	disp    *dispatcher.Dispatcher
	metrics *metrics.Collector

	factories     map[string]Factory
	workers       []*module.Worker
	moduleConfigs map[string]config.ModuleConfig

	nextHID     uint64
	reloadReply chan proto.Msg
}

// New builds a Node. info is baked into the descriptive JSON and /status.
func New(info dispatcher.NodeInfo, log *logrus.Entry) *Node {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "node")

	m := metrics.New()
	d := dispatcher.New(info, log)
	d.SetMetrics(m)

	return &Node{
		log:           log,
		info:          info,
		disp:          d,
		metrics:       m,
		factories:     make(map[string]Factory),
		moduleConfigs: make(map[string]config.ModuleConfig),
	}
}

// Metrics exposes the node's Prometheus collector; Run itself serves its
// registry on the debug HTTP listener.
func (n *Node) Metrics() *metrics.Collector {
	return n.metrics
}

// RegisterFactory binds a module Class string (as it appears in the config
// file) to the function that builds its Config. Demo modules (spec §4.7)
// and any future module kind register here before LoadConfig runs.
func (n *Node) RegisterFactory(class string, f Factory) {
	n.factories[class] = f
}

// AddModule builds a Worker from cfg, wires it into the dispatcher and the
// node's metrics sink. LoadConfig calls it once per configured module.
func (n *Node) AddModule(cfg module.Config) *module.Worker {
	reqCh := make(chan dispatcher.Request, moduleRequestBuffer)
	w := module.New(cfg, reqCh, n.disp.Handle(), n.log.WithField("module", cfg.Name))
	w.SetMetrics(n.metrics)
	n.disp.RegisterModule(cfg.Name, reqCh)
	n.workers = append(n.workers, w)
	return w
}

// LoadConfig builds one module per `[modules.<name>]` table in cfg, using
// the Factory registered for its Class. Every name must resolve to a
// registered class; an unknown class is a configuration error.
func (n *Node) LoadConfig(cfg *config.NodeConfig) error {
	for name, mc := range cfg.Modules {
		f, ok := n.factories[mc.Class]
		if !ok {
			return secoperr.New(secoperr.KindConfig, "module %q: unknown class %q", name, mc.Class)
		}
		modCfg, err := f(name, mc, n.disp.Handle())
		if err != nil {
			return secoperr.Wrap(secoperr.KindConfig, fmt.Errorf("module %q: %w", name, err))
		}
		modCfg.Name = name
		n.AddModule(modCfg)
		n.moduleConfigs[name] = mc
	}
	return nil
}

// ApplyReload applies a freshly loaded config on top of the running node,
// for the CLI's SIGHUP handler. A module whose class is unchanged has its
// changed parameters relayed through the dispatcher as ordinary `change`
// requests; a module that is new, removed, or whose class changed is left
// alone with a logged warning, since this node has no live module
// teardown/rebuild path.
func (n *Node) ApplyReload(cfg *config.NodeConfig) {
	n.info.Description = cfg.Description

	for name, mc := range cfg.Modules {
		prev, ok := n.moduleConfigs[name]
		if !ok {
			n.log.WithField("module", name).Warn("reload: new module requires a restart, ignoring")
			continue
		}
		if prev.Class != mc.Class {
			n.log.WithField("module", name).Warn("reload: module class changed, requires a restart, ignoring")
			continue
		}
		for param, value := range mc.Parameters {
			if reflect.DeepEqual(prev.Parameters[param], value) {
				continue
			}
			n.disp.Handle().Send(reloadHID, proto.IncomingMsg{
				Msg: proto.Msg{Kind: proto.KindChange, Module: name, Accessible: param, Value: value},
			})
		}
		n.moduleConfigs[name] = mc
	}

	for name := range n.moduleConfigs {
		if _, ok := cfg.Modules[name]; !ok {
			n.log.WithField("module", name).Warn("reload: module removed from config but still running, ignoring")
		}
	}
}

// Status is the snapshot served at /status.
func (n *Node) Status() interface{} {
	modules := make([]string, len(n.workers))
	for i, w := range n.workers {
		modules[i] = w.Name()
	}
	return map[string]interface{}{
		"equipment_id": n.info.EquipmentID,
		"description":  n.info.Description,
		"firmware":     n.info.Firmware,
		"modules":      modules,
	}
}

// Run starts the dispatcher, every registered module's supervisor, the TCP
// listener on bind, and — if debugBind is non-empty — the introspection
// server on debugBind. It blocks until ctx is cancelled, then shuts
// everything down and returns nil (or the first fatal error, if any
// listener failed).
func (n *Node) Run(ctx context.Context, bind string, debugBind string) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", bind, err)
	}

	var (
		debugLn  net.Listener
		debugSrv *debughttp.Server
	)
	if debugBind != "" {
		debugLn, err = net.Listen("tcp", debugBind)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen %s: %w", debugBind, err)
		}
		debugSrv = debughttp.New(n.metrics.Registry(), n.Status)
	}

	go n.disp.Run()
	for _, w := range n.workers {
		go w.Supervise()
	}

	n.reloadReply = make(chan proto.Msg, 32)
	n.disp.Handle().Register(reloadHID, n.reloadReply)
	go n.drainReloadReplies(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return n.acceptLoop(ln)
	})

	if debugSrv != nil {
		g.Go(func() error {
			if err := debugSrv.Serve(debugLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		_ = ln.Close()
		if debugSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), debugShutdownTimeout)
			defer cancel()
			_ = debugSrv.Shutdown(shutdownCtx)
			_ = debugLn.Close()
		}
		n.disp.Stop()
		return nil
	})

	return g.Wait()
}

// drainReloadReplies logs the outcome of ApplyReload's relayed change
// requests; it never blocks shutdown since Run does not wait on it.
func (n *Node) drainReloadReplies(ctx context.Context) {
	for {
		select {
		case msg := <-n.reloadReply:
			if msg.Kind == proto.KindError {
				n.log.WithField("module", msg.Module).Warn("reload: change request rejected")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (n *Node) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		hid := dispatcher.HandlerID(atomic.AddUint64(&n.nextHID, 1))
		n.metrics.ConnectionOpened()
		h := handler.New(conn, hid, n.disp.Handle(), n.log)
		go func() {
			h.Serve()
			n.metrics.ConnectionClosed()
		}()
	}
}
