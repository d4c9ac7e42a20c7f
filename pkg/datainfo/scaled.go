package datainfo

import (
	"math"

	"github.com/nabbar/secop/internal/secoperr"
)

// ScaledOpt configures a Scaled descriptor: an integer on the wire, scaled
// to a float on the API side.
type ScaledOpt struct {
	Scale    float64
	Min, Max int64
	Unit     string
}

type scaledDescriptor struct {
	opt ScaledOpt
}

// Scaled returns the descriptor for an integer-on-the-wire, scaled-float
// internal value (spec §4.2: round-half-away-from-zero on encode, bounds
// enforced on the wire integer).
func Scaled(opt ScaledOpt) Descriptor {
	return scaledDescriptor{opt: opt}
}

func (d scaledDescriptor) Describe() interface{} {
	m := map[string]interface{}{
		"scale": d.opt.Scale,
		"min":   d.opt.Min,
		"max":   d.opt.Max,
	}
	if d.opt.Unit != "" {
		m["unit"] = d.opt.Unit
	}
	return []interface{}{"scaled", m}
}

func roundHalfAwayFromZero(f float64) int64 {
	if f >= 0 {
		return int64(math.Floor(f + 0.5))
	}
	return int64(math.Ceil(f - 0.5))
}

func (d scaledDescriptor) checkWire(i int64) error {
	if i < d.opt.Min || i > d.opt.Max {
		return secoperr.BadValue("expected scaled integer between %d and %d", d.opt.Min, d.opt.Max)
	}
	return nil
}

// Encode takes the internal float value, rounds stored/scale to the nearest
// wire integer (half away from zero) and enforces wire bounds.
func (d scaledDescriptor) Encode(value interface{}) (interface{}, error) {
	f, ok := numeric(value)
	if !ok {
		return nil, secoperr.BadValue("expected scaled double, got %T", value)
	}
	wireInt := roundHalfAwayFromZero(f / d.opt.Scale)
	if err := d.checkWire(wireInt); err != nil {
		return nil, err
	}
	return wireInt, nil
}

func (d scaledDescriptor) Decode(wire interface{}) (interface{}, error) {
	i, ok := integral(wire)
	if !ok {
		return nil, secoperr.BadValue("expected scaled integer")
	}
	if err := d.checkWire(i); err != nil {
		return nil, err
	}
	return float64(i) * d.opt.Scale, nil
}
