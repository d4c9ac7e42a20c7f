package datainfo

import "github.com/nabbar/secop/internal/secoperr"

// IntOpt configures an Int descriptor's inclusive bounds.
type IntOpt struct {
	Min, Max int64
}

type intDescriptor struct {
	opt IntOpt
}

// Int returns the descriptor for a bounded integer value.
func Int(opt IntOpt) Descriptor {
	return intDescriptor{opt: opt}
}

func (d intDescriptor) Describe() interface{} {
	return []interface{}{"int", map[string]interface{}{"min": d.opt.Min, "max": d.opt.Max}}
}

func (d intDescriptor) check(i int64) error {
	if i < d.opt.Min || i > d.opt.Max {
		return secoperr.BadValue("expected int between %d and %d", d.opt.Min, d.opt.Max)
	}
	return nil
}

func (d intDescriptor) Encode(value interface{}) (interface{}, error) {
	i, ok := integral(value)
	if !ok {
		return nil, secoperr.BadValue("expected int, got %T", value)
	}
	if err := d.check(i); err != nil {
		return nil, err
	}
	return i, nil
}

func (d intDescriptor) Decode(wire interface{}) (interface{}, error) {
	i, ok := integral(wire)
	if !ok {
		return nil, secoperr.BadValue("expected int")
	}
	if err := d.check(i); err != nil {
		return nil, err
	}
	return i, nil
}
