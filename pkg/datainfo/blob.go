package datainfo

import (
	"encoding/base64"

	"github.com/nabbar/secop/internal/secoperr"
)

// BlobOpt configures a Blob descriptor's byte-length bounds.
type BlobOpt struct {
	MinBytes, MaxBytes int
}

type blobDescriptor struct {
	opt BlobOpt
}

// Blob returns the descriptor for a base64-on-the-wire byte blob.
func Blob(opt BlobOpt) Descriptor {
	return blobDescriptor{opt: opt}
}

func (d blobDescriptor) Describe() interface{} {
	return []interface{}{"blob", map[string]interface{}{"minbytes": d.opt.MinBytes, "maxbytes": d.opt.MaxBytes}}
}

func (d blobDescriptor) check(n int) error {
	if n < d.opt.MinBytes || n > d.opt.MaxBytes {
		return secoperr.BadValue("expected blob between %d and %d bytes", d.opt.MinBytes, d.opt.MaxBytes)
	}
	return nil
}

func (d blobDescriptor) Encode(value interface{}) (interface{}, error) {
	b, ok := value.([]byte)
	if !ok {
		return nil, secoperr.BadValue("expected blob, got %T", value)
	}
	if err := d.check(len(b)); err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (d blobDescriptor) Decode(wire interface{}) (interface{}, error) {
	s, ok := wire.(string)
	if !ok {
		return nil, secoperr.BadValue("expected base64 blob")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, secoperr.BadValue("invalid base64: %v", err)
	}
	if err := d.check(len(b)); err != nil {
		return nil, err
	}
	return b, nil
}
