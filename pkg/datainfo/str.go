package datainfo

import "github.com/nabbar/secop/internal/secoperr"

// StrOpt configures a Str descriptor. MaxChars is counted as byte length
// per spec §4.2, not rune count.
type StrOpt struct {
	MinChars, MaxChars int
	IsUTF8             bool
}

type strDescriptor struct {
	opt StrOpt
}

// Str returns the descriptor for a bounded string value.
func Str(opt StrOpt) Descriptor {
	return strDescriptor{opt: opt}
}

func (d strDescriptor) Describe() interface{} {
	m := map[string]interface{}{"minchars": d.opt.MinChars, "maxchars": d.opt.MaxChars}
	if d.opt.IsUTF8 {
		m["isUTF8"] = true
	}
	return []interface{}{"string", m}
}

func (d strDescriptor) check(s string) error {
	if len(s) < d.opt.MinChars || len(s) > d.opt.MaxChars {
		return secoperr.BadValue("expected string between %d and %d bytes", d.opt.MinChars, d.opt.MaxChars)
	}
	return nil
}

func (d strDescriptor) Encode(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, secoperr.BadValue("expected string, got %T", value)
	}
	if err := d.check(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (d strDescriptor) Decode(wire interface{}) (interface{}, error) {
	s, ok := wire.(string)
	if !ok {
		return nil, secoperr.BadValue("expected string")
	}
	if err := d.check(s); err != nil {
		return nil, err
	}
	return s, nil
}
