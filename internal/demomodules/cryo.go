package demomodules

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nabbar/secop/internal/config"
	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/loopback"
	"github.com/nabbar/secop/internal/module"
	"github.com/nabbar/secop/pkg/datainfo"
)

// loopbackHIDCounter hands out HandlerIDs for demo modules' own loopback
// clients, from a range well above anything internal/node's TCP accept loop
// will ever assign, so the two never collide in the dispatcher's client map.
var loopbackHIDCounter uint64 = 1 << 40

func nextLoopbackHID() dispatcher.HandlerID {
	return dispatcher.HandlerID(atomic.AddUint64(&loopbackHIDCounter, 1))
}

func cryoParams() []module.ParamSpec {
	return []module.ParamSpec{
		{
			Name: "value", Type: datainfo.Double(datainfo.DoubleOpt{}), ReadOnly: true, Polling: 1,
		},
		{
			Name: "target", Type: datainfo.Double(datainfo.DoubleOpt{}),
			Default: func() interface{} { return 0.0 },
		},
		{
			Name: "ramp", Type: datainfo.Double(datainfo.DoubleOpt{}), SoftwareOnly: true,
			Default: func() interface{} { return 1.0 },
		},
		{
			Name: "status", Type: datainfo.StatusType, ReadOnly: true, Polling: 1,
		},
	}
}

func cryoCommands() []module.CommandSpec {
	return []module.CommandSpec{{Name: "stop"}}
}

// CryoFactory builds a Cryo module's Config. If the module's config table
// carries a "link" parameter naming another module, every target change is
// relayed to that module's "send" command over the loopback client — a
// stand-in for a real controller forwarding a setpoint to a comms link.
func CryoFactory(name string, mc config.ModuleConfig, handle dispatcher.Handle) (module.Config, error) {
	params := cryoParams()
	commands := cryoCommands()

	linkModule, _ := mc.Parameters["link"].(string)
	cfgValues := make(map[string]interface{}, len(mc.Parameters))
	for k, v := range mc.Parameters {
		if k != "link" {
			cfgValues[k] = v
		}
	}

	return module.Config{
		Params:       params,
		Commands:     commands,
		ConfigValues: cfgValues,
		NewHooks: func() module.Hooks {
			return &cryoHooks{
				params: params, commands: commands, description: mc.Description,
				linkModule: linkModule, handle: handle,
			}
		},
	}, nil
}

// cryoHooks simulates a single-loop temperature controller: setpoint ramps
// toward target at ramp K/min, value relaxes toward setpoint with a simple
// first-order lag. Every Read/Change/Do call arrives serially from the
// worker's own goroutine (module.Hooks's contract), so no locking is needed.
type cryoHooks struct {
	params   []module.ParamSpec
	commands []module.CommandSpec

	description string
	linkModule  string
	handle      dispatcher.Handle
	link        *loopback.Client

	target, ramp, setpoint, value float64
	lastStep                      time.Time
}

func (h *cryoHooks) Describe() interface{} {
	return describeAccessibles(h.description, h.params, h.commands)
}

// Updated keeps the simulation's working copy of a software-only parameter
// in sync with its cache: "ramp" never goes through Change, so step's
// physics would otherwise run on a stale value after a client writes it.
func (h *cryoHooks) Updated(param string, value interface{}) {
	if param == "ramp" {
		h.ramp = value.(float64)
	}
}

func (h *cryoHooks) Setup() error {
	h.lastStep = time.Now()
	if h.linkModule == "" {
		return nil
	}
	c, err := loopback.New("local://"+h.linkModule, nextLoopbackHID(), h.handle)
	if err != nil {
		return fmt.Errorf("connecting to link module %q: %w", h.linkModule, err)
	}
	h.link = c
	return nil
}

// step advances the simulation by the time elapsed since the last call,
// ramping the setpoint toward target and relaxing value toward setpoint.
func (h *cryoHooks) step() {
	now := time.Now()
	dt := now.Sub(h.lastStep).Seconds()
	h.lastStep = now
	if dt <= 0 {
		return
	}

	if h.setpoint != h.target {
		maxDelta := 10000.0
		if h.ramp > 0 {
			maxDelta = h.ramp / 60.0 * dt
		}
		diff := h.target - h.setpoint
		if diff > maxDelta {
			diff = maxDelta
		} else if diff < -maxDelta {
			diff = -maxDelta
		}
		h.setpoint += diff
	}

	h.value += (h.setpoint - h.value) * 0.3
}

func (h *cryoHooks) isBusy() bool {
	const settled = 1e-6
	diff := h.target - h.setpoint
	return diff > settled || diff < -settled
}

func (h *cryoHooks) Read(param string) (interface{}, error) {
	switch param {
	case "value":
		h.step()
		return h.value, nil
	case "status":
		if h.isBusy() {
			return datainfo.StatusValue(datainfo.StatusBusy, "ramping"), nil
		}
		return datainfo.StatusValue(datainfo.StatusIdle, "idle"), nil
	default:
		return nil, fmt.Errorf("cryo has no hardware-backed parameter %q", param)
	}
}

func (h *cryoHooks) Change(param string, value interface{}) (interface{}, error) {
	switch param {
	case "target":
		h.target = value.(float64)
		if h.link != nil {
			ctx, cancel := context.WithTimeout(context.Background(), loopback.DefaultTimeout)
			defer cancel()
			if _, err := h.link.Do(ctx, "send", fmt.Sprintf("target=%.3f", h.target)); err != nil {
				return nil, fmt.Errorf("relaying target to %s: %w", h.linkModule, err)
			}
		}
		return h.target, nil
	default:
		return nil, fmt.Errorf("cryo has no hardware-backed parameter %q", param)
	}
}

func (h *cryoHooks) Do(command string, arg interface{}) (interface{}, error) {
	switch command {
	case "stop":
		h.target = h.setpoint
		return nil, nil
	default:
		return nil, fmt.Errorf("cryo has no command %q", command)
	}
}
