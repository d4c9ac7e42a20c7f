package datainfo

import (
	"encoding/json"
)

// Descriptor is a typed SECoP datatype. Each Descriptor exposes three
// operations, per spec §4.2: Describe emits the JSON schema shipped in the
// node description; Encode converts an internal Go value to a wire-ready
// JSON value, enforcing bounds; Decode converts a wire JSON value into a
// validated internal Go value.
type Descriptor interface {
	// Describe returns the two-element [typename, details] schema value.
	Describe() interface{}

	// Encode validates and converts an internal value to its wire form.
	Encode(value interface{}) (interface{}, error)

	// Decode validates and converts a wire value to its internal form.
	Decode(wire interface{}) (interface{}, error)
}

// numeric normalizes a wire numeric value (float64, int64, or json.Number,
// as produced by a decoder in UseNumber mode) to a float64; ok is false if
// value isn't numeric at all.
func numeric(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// integral normalizes a wire numeric value to an int64, rejecting values
// with a fractional part.
func integral(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
