package demomodules

import (
	"fmt"

	"github.com/nabbar/secop/internal/config"
	"github.com/nabbar/secop/internal/dispatcher"
	"github.com/nabbar/secop/internal/module"
	"github.com/nabbar/secop/pkg/datainfo"
)

func linkParams() []module.ParamSpec {
	return []module.ParamSpec{
		{
			Name: "connected", Type: datainfo.Bool(), SoftwareOnly: true, ReadOnly: true,
			Default: func() interface{} { return true },
		},
	}
}

func linkCommands() []module.CommandSpec {
	str := datainfo.Str(datainfo.StrOpt{MaxChars: 1024})
	return []module.CommandSpec{
		{Name: "send", Arg: str, Result: str},
	}
}

// LinkFactory builds a Link module's Config: a minimal stand-in for a
// serial or TCP peer, with a "connected" parameter and a "send" command
// that acknowledges whatever it receives — just enough surface for Cryo
// (or a client) to exercise an inter-module call end to end.
func LinkFactory(name string, mc config.ModuleConfig, handle dispatcher.Handle) (module.Config, error) {
	params := linkParams()
	commands := linkCommands()

	return module.Config{
		Params:       params,
		Commands:     commands,
		ConfigValues: mc.Parameters,
		NewHooks: func() module.Hooks {
			return &linkHooks{params: params, commands: commands, description: mc.Description}
		},
	}, nil
}

type linkHooks struct {
	params      []module.ParamSpec
	commands    []module.CommandSpec
	description string
}

func (h *linkHooks) Describe() interface{} {
	return describeAccessibles(h.description, h.params, h.commands)
}

func (h *linkHooks) Setup() error {
	return nil
}

func (h *linkHooks) Read(param string) (interface{}, error) {
	return nil, fmt.Errorf("link has no hardware-backed parameter %q", param)
}

func (h *linkHooks) Change(param string, value interface{}) (interface{}, error) {
	return nil, fmt.Errorf("link has no hardware-backed parameter %q", param)
}

func (h *linkHooks) Do(command string, arg interface{}) (interface{}, error) {
	switch command {
	case "send":
		msg, _ := arg.(string)
		return "ack:" + msg, nil
	default:
		return nil, fmt.Errorf("link has no command %q", command)
	}
}
