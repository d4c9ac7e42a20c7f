package module

import (
	"time"

	"github.com/nabbar/secop/pkg/datainfo"
)

// ParamSpec is one parameter's static declaration, fed into init_params at
// every (re)start of the worker (spec §4.5).
type ParamSpec struct {
	Name string
	Type datainfo.Descriptor

	// SoftwareOnly parameters have no hardware backing: their value lives
	// only in the cache, seeded once from a config override or Default,
	// never read from or written through Hooks.
	SoftwareOnly bool

	// ReadOnly parameters reject `change` from a client. A hardware-backed
	// read-only parameter still has its initial value pulled via Hooks.Read.
	ReadOnly bool

	// Polling is the cadence divisor against the normal/busy tick counters:
	//   0   never polled
	//   > 0 polled every Polling normal ticks, and every Polling busy ticks
	//       while status is Busy (normal ticks are skipped while Busy, so
	//       the parameter isn't double-polled)
	//   < 0 polled every |Polling| normal ticks regardless of status
	Polling int

	// Default supplies the startup value used when no config override is
	// present. Nil means no default exists.
	Default func() interface{}
}

// CommandSpec is one command's static declaration.
type CommandSpec struct {
	Name string
	// Arg and Result are nil when the command takes/returns no JSON value.
	Arg    datainfo.Descriptor
	Result datainfo.Descriptor
}

// Hooks is the module-specific behavior a concrete module supplies. Read,
// Change and Do may block (they talk to hardware); they are always called
// from the worker's own goroutine, never concurrently.
type Hooks interface {
	// Describe returns the module's accessibles structure for the node
	// descriptive JSON (spec §4.4).
	Describe() interface{}

	// Setup runs once per incarnation, after init_params, before the event
	// loop starts (e.g. opening a device connection).
	Setup() error

	// Read pulls the current value of param from hardware.
	Read(param string) (interface{}, error)

	// Change writes value to param and returns the value actually stored
	// (hardware may clamp or round it).
	Change(param string, value interface{}) (interface{}, error)

	// Do executes command with arg and returns its result.
	Do(command string, arg interface{}) (interface{}, error)
}

// UpdateNotifier is an optional Hooks extension. A software-only parameter
// never goes through Change, so a module that keeps internal state in sync
// with one (spec §4.5's update_<param> hook, init_params row 2 and the
// swonly-writable Change rule) implements this to be told when the cached
// value of a writable one is set from the startup default or changed by a
// client Change. A value taken from a config-file override at startup is
// stored without a call. Hooks that don't implement it are simply never
// called.
type UpdateNotifier interface {
	Updated(param string, value interface{})
}

// Config is a module's full static configuration, supplied fresh to every
// incarnation via NewHooks.
type Config struct {
	Name     string
	Params   []ParamSpec
	Commands []CommandSpec

	// ConfigValues holds wire-shaped config-file overrides, keyed by
	// parameter name.
	ConfigValues map[string]interface{}

	// NormalPeriod is T_n; the busy period is always T_n/5 (spec §4.5).
	// Defaults to one second if zero.
	NormalPeriod time.Duration

	// NewHooks constructs a fresh Hooks instance for each incarnation, so a
	// restart after panic starts from a clean slate.
	NewHooks func() Hooks
}

func (c Config) normalPeriod() time.Duration {
	if c.NormalPeriod <= 0 {
		return time.Second
	}
	return c.NormalPeriod
}
