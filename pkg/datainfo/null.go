package datainfo

import "github.com/nabbar/secop/internal/secoperr"

type nullDescriptor struct{}

// Null returns the descriptor for SECoP's nullable/void type.
func Null() Descriptor {
	return nullDescriptor{}
}

func (nullDescriptor) Describe() interface{} {
	return []interface{}{"null", map[string]interface{}{}}
}

func (nullDescriptor) Encode(value interface{}) (interface{}, error) {
	if value != nil {
		return nil, secoperr.BadValue("expected null, got %T", value)
	}
	return nil, nil
}

func (nullDescriptor) Decode(wire interface{}) (interface{}, error) {
	if wire != nil {
		return nil, secoperr.BadValue("expected null")
	}
	return nil, nil
}
