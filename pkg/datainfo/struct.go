package datainfo

import "github.com/nabbar/secop/internal/secoperr"

// StructField names one member of a Struct descriptor. Optional fields may
// be absent from the wire object (and are omitted from the encoded one);
// all others are mandatory.
type StructField struct {
	Name     string
	Type     Descriptor
	Optional bool
}

type structDescriptor struct {
	fields []StructField
}

// Struct returns the descriptor for a SECoP struct. Describe emits the
// members as a JSON object, so field order is not preserved there.
func Struct(fields ...StructField) Descriptor {
	return structDescriptor{fields: fields}
}

func (d structDescriptor) Describe() interface{} {
	members := make(map[string]interface{}, len(d.fields))
	for _, f := range d.fields {
		members[f.Name] = f.Type.Describe()
	}
	return []interface{}{"struct", map[string]interface{}{"members": members}}
}

func (d structDescriptor) Encode(value interface{}) (interface{}, error) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, secoperr.BadValue("expected struct")
	}
	out := make(map[string]interface{}, len(d.fields))
	for _, f := range d.fields {
		v, present := m[f.Name]
		if !present {
			if f.Optional {
				continue
			}
			return nil, secoperr.BadValue("missing mandatory struct field %q", f.Name)
		}
		enc, err := f.Type.Encode(v)
		if err != nil {
			return nil, amendField(err, f.Name)
		}
		out[f.Name] = enc
	}
	return out, nil
}

func (d structDescriptor) Decode(wire interface{}) (interface{}, error) {
	m, ok := wire.(map[string]interface{})
	if !ok {
		return nil, secoperr.BadValue("expected struct")
	}
	out := make(map[string]interface{}, len(d.fields))
	for _, f := range d.fields {
		v, present := m[f.Name]
		if !present {
			if f.Optional {
				continue
			}
			return nil, secoperr.BadValue("missing mandatory struct field %q", f.Name)
		}
		dec, err := f.Type.Decode(v)
		if err != nil {
			return nil, amendField(err, f.Name)
		}
		out[f.Name] = dec
	}
	return out, nil
}

func amendField(err error, name string) error {
	note := "in field " + name
	if se, ok := err.(secoperr.Error); ok {
		return se.Amend(note)
	}
	return secoperr.BadValue("%s (%s)", err.Error(), note)
}
