package datainfo

import "github.com/nabbar/secop/internal/secoperr"

type tupleDescriptor struct {
	elements []Descriptor
}

// Tuple returns the descriptor for a fixed-length, heterogeneously-typed
// tuple (k in 2..6 per spec §3, but this implementation does not special
// case k — any length the caller passes is accepted).
func Tuple(elements ...Descriptor) Descriptor {
	return tupleDescriptor{elements: elements}
}

func (d tupleDescriptor) Describe() interface{} {
	members := make([]interface{}, len(d.elements))
	for i, e := range d.elements {
		members[i] = e.Describe()
	}
	return []interface{}{"tuple", map[string]interface{}{"members": members}}
}

func (d tupleDescriptor) Encode(value interface{}) (interface{}, error) {
	arr, ok := value.([]interface{})
	if !ok || len(arr) != len(d.elements) {
		return nil, secoperr.BadValue("expected tuple of %d elements", len(d.elements))
	}
	out := make([]interface{}, len(arr))
	for i, v := range arr {
		enc, err := d.elements[i].Encode(v)
		if err != nil {
			return nil, amend(err, i)
		}
		out[i] = enc
	}
	return out, nil
}

func (d tupleDescriptor) Decode(wire interface{}) (interface{}, error) {
	arr, ok := wire.([]interface{})
	if !ok || len(arr) != len(d.elements) {
		return nil, secoperr.BadValue("expected tuple of %d elements", len(d.elements))
	}
	out := make([]interface{}, len(arr))
	for i, v := range arr {
		dec, err := d.elements[i].Decode(v)
		if err != nil {
			return nil, amend(err, i)
		}
		out[i] = dec
	}
	return out, nil
}
