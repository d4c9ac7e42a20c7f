package datainfo

import "github.com/nabbar/secop/internal/secoperr"

type boolDescriptor struct{}

// Bool returns the descriptor for SECoP's boolean type.
func Bool() Descriptor {
	return boolDescriptor{}
}

func (boolDescriptor) Describe() interface{} {
	return []interface{}{"bool", map[string]interface{}{}}
}

func (boolDescriptor) Encode(value interface{}) (interface{}, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, secoperr.BadValue("expected bool, got %T", value)
	}
	return b, nil
}

func (boolDescriptor) Decode(wire interface{}) (interface{}, error) {
	b, ok := wire.(bool)
	if !ok {
		return nil, secoperr.BadValue("expected bool")
	}
	return b, nil
}
