package datainfo

import (
	"fmt"

	"github.com/nabbar/secop/internal/secoperr"
)

// ArrayOfOpt configures an ArrayOf descriptor's length bounds and element
// type.
type ArrayOfOpt struct {
	Min, Max int
	Element  Descriptor
}

type arrayDescriptor struct {
	opt ArrayOfOpt
}

// ArrayOf returns the descriptor for a bounded, homogeneously-typed array.
func ArrayOf(opt ArrayOfOpt) Descriptor {
	return arrayDescriptor{opt: opt}
}

func (d arrayDescriptor) Describe() interface{} {
	return []interface{}{"array", map[string]interface{}{
		"min":     d.opt.Min,
		"max":     d.opt.Max,
		"members": d.opt.Element.Describe(),
	}}
}

func (d arrayDescriptor) checkLen(n int) error {
	if n < d.opt.Min || n > d.opt.Max {
		return secoperr.BadValue("expected array between %d and %d items", d.opt.Min, d.opt.Max)
	}
	return nil
}

func (d arrayDescriptor) Encode(value interface{}) (interface{}, error) {
	arr, ok := value.([]interface{})
	if !ok {
		return nil, secoperr.BadValue("expected array, got %T", value)
	}
	if err := d.checkLen(len(arr)); err != nil {
		return nil, err
	}
	out := make([]interface{}, len(arr))
	for i, v := range arr {
		enc, err := d.opt.Element.Encode(v)
		if err != nil {
			return nil, amend(err, i+1)
		}
		out[i] = enc
	}
	return out, nil
}

func (d arrayDescriptor) Decode(wire interface{}) (interface{}, error) {
	arr, ok := wire.([]interface{})
	if !ok {
		return nil, secoperr.BadValue("expected array")
	}
	if err := d.checkLen(len(arr)); err != nil {
		return nil, err
	}
	out := make([]interface{}, len(arr))
	for i, v := range arr {
		dec, err := d.opt.Element.Decode(v)
		if err != nil {
			return nil, amend(err, i+1)
		}
		out[i] = dec
	}
	return out, nil
}

// amend wraps err with "in item N" per spec §4.2, preserving the Kind when
// err is a secoperr.Error and falling back to BadValue otherwise.
func amend(err error, itemIndex int) error {
	note := fmt.Sprintf("in item %d", itemIndex)
	if se, ok := err.(secoperr.Error); ok {
		return se.Amend(note)
	}
	return secoperr.BadValue("%s (%s)", err.Error(), note)
}
