package datainfo

import (
	"math"

	"github.com/nabbar/secop/internal/secoperr"
)

// DoubleOpt configures an optional bound or display hint on a Double
// descriptor. Resolution hints are advisory only — spec §4.2 does not ask
// for them to be enforced.
type DoubleOpt struct {
	Min, Max       *float64
	Unit           string
	FmtStr         string
	AbsResolution  *float64
	RelResolution  *float64
}

type doubleDescriptor struct {
	opt DoubleOpt
}

// Double returns the descriptor for a bounded floating-point value.
func Double(opt DoubleOpt) Descriptor {
	return doubleDescriptor{opt: opt}
}

func (d doubleDescriptor) details() map[string]interface{} {
	m := map[string]interface{}{}
	if d.opt.Min != nil {
		m["min"] = *d.opt.Min
	}
	if d.opt.Max != nil {
		m["max"] = *d.opt.Max
	}
	if d.opt.Unit != "" {
		m["unit"] = d.opt.Unit
	}
	if d.opt.FmtStr != "" {
		m["fmtstr"] = d.opt.FmtStr
	}
	if d.opt.AbsResolution != nil {
		m["absolute_resolution"] = *d.opt.AbsResolution
	}
	if d.opt.RelResolution != nil {
		m["relative_resolution"] = *d.opt.RelResolution
	}
	return m
}

func (d doubleDescriptor) Describe() interface{} {
	return []interface{}{"double", d.details()}
}

func (d doubleDescriptor) rangeError() error {
	switch {
	case d.opt.Min != nil && d.opt.Max != nil:
		return secoperr.BadValue("expected double between %v and %v", *d.opt.Min, *d.opt.Max)
	case d.opt.Min != nil:
		return secoperr.BadValue("expected double >= %v", *d.opt.Min)
	default:
		return secoperr.BadValue("expected double <= %v", *d.opt.Max)
	}
}

func (d doubleDescriptor) check(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return secoperr.BadValue("expected finite double")
	}
	if d.opt.Min != nil && f < *d.opt.Min {
		return d.rangeError()
	}
	if d.opt.Max != nil && f > *d.opt.Max {
		return d.rangeError()
	}
	return nil
}

func (d doubleDescriptor) Encode(value interface{}) (interface{}, error) {
	f, ok := numeric(value)
	if !ok {
		return nil, secoperr.BadValue("expected double, got %T", value)
	}
	if err := d.check(f); err != nil {
		return nil, err
	}
	return f, nil
}

func (d doubleDescriptor) Decode(wire interface{}) (interface{}, error) {
	f, ok := numeric(wire)
	if !ok {
		return nil, secoperr.BadValue("expected double")
	}
	if err := d.check(f); err != nil {
		return nil, err
	}
	return f, nil
}
