package demomodules

import (
	"github.com/nabbar/secop/internal/module"
)

// describeAccessibles builds the node-descriptive "accessibles" object
// shared by both demo modules, straight from the same ParamSpec/CommandSpec
// slices used to build the module.Config (spec §4.4's descriptive JSON).
func describeAccessibles(description string, params []module.ParamSpec, commands []module.CommandSpec) map[string]interface{} {
	accessibles := make(map[string]interface{}, len(params)+len(commands))
	for _, p := range params {
		accessibles[p.Name] = map[string]interface{}{
			"description": p.Name,
			"datainfo":    p.Type.Describe(),
			"readonly":    p.ReadOnly,
		}
	}
	for _, c := range commands {
		entry := map[string]interface{}{"description": c.Name}
		if c.Arg != nil {
			entry["argument"] = c.Arg.Describe()
		}
		if c.Result != nil {
			entry["result"] = c.Result.Describe()
		}
		accessibles[c.Name] = entry
	}
	return map[string]interface{}{
		"description":  description,
		"accessibles":  accessibles,
		"interface_classes": []string{"Module"},
	}
}
