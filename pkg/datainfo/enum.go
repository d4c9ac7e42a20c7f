package datainfo

import "github.com/nabbar/secop/internal/secoperr"

type enumDescriptor struct {
	name    string
	members map[string]int64
	byValue map[int64]string
}

// Enum returns the descriptor for a SECoP enum: members maps member name to
// its wire integer value. Decode accepts either the member name or its
// integer value; Encode always emits the integer (spec §4.2).
func Enum(name string, members map[string]int64) Descriptor {
	byValue := make(map[int64]string, len(members))
	for k, v := range members {
		byValue[v] = k
	}
	return enumDescriptor{name: name, members: members, byValue: byValue}
}

func (d enumDescriptor) Describe() interface{} {
	return []interface{}{"enum", map[string]interface{}{"name": d.name, "members": d.members}}
}

func (d enumDescriptor) validValue(i int64) bool {
	_, ok := d.byValue[i]
	return ok
}

func (d enumDescriptor) Encode(value interface{}) (interface{}, error) {
	i, ok := integral(value)
	if !ok || !d.validValue(i) {
		return nil, secoperr.BadValue("expected member of enum %s", d.name)
	}
	return i, nil
}

func (d enumDescriptor) Decode(wire interface{}) (interface{}, error) {
	if s, ok := wire.(string); ok {
		if i, ok := d.members[s]; ok {
			return i, nil
		}
		return nil, secoperr.BadValue("expected member of enum %s", d.name)
	}
	if i, ok := integral(wire); ok && d.validValue(i) {
		return i, nil
	}
	return nil, secoperr.BadValue("expected member of enum %s", d.name)
}
