package datainfo_test

import (
	"github.com/google/go-cmp/cmp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/secop/pkg/datainfo"
)

func f(v float64) *float64 { return &v }

var _ = Describe("Double", func() {
	d := datainfo.Double(datainfo.DoubleOpt{Min: f(0), Max: f(10)})

	It("round-trips a value inside bounds", func() {
		enc, err := d.Encode(3.5)
		Expect(err).NotTo(HaveOccurred())
		dec, err := d.Decode(enc)
		Expect(err).NotTo(HaveOccurred())
		Expect(dec).To(Equal(3.5))
	})

	It("rejects an out-of-range value on encode", func() {
		_, err := d.Encode(50.0)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("expected double between 0 and 10"))
	})

	It("rejects an out-of-range value on decode", func() {
		_, err := d.Decode(50.0)
		Expect(err).To(HaveOccurred())
	})

	It("rejects below a min-only bound without panicking", func() {
		minOnly := datainfo.Double(datainfo.DoubleOpt{Min: f(0)})
		_, err := minOnly.Encode(-1.0)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("expected double >= 0"))
	})

	It("rejects above a max-only bound without panicking", func() {
		maxOnly := datainfo.Double(datainfo.DoubleOpt{Max: f(10)})
		_, err := maxOnly.Encode(11.0)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("expected double <= 10"))
	})
})

var _ = Describe("Scaled", func() {
	d := datainfo.Scaled(datainfo.ScaledOpt{Scale: 0.1, Min: -100, Max: 100})

	It("rounds half away from zero on encode", func() {
		enc, err := d.Encode(1.25) // 12.5 -> 13 (away from zero)
		Expect(err).NotTo(HaveOccurred())
		Expect(enc).To(Equal(int64(13)))
	})

	It("rounds negative half away from zero", func() {
		enc, err := d.Encode(-1.25)
		Expect(err).NotTo(HaveOccurred())
		Expect(enc).To(Equal(int64(-13)))
	})

	It("decodes back to stored*scale", func() {
		dec, err := d.Decode(int64(42))
		Expect(err).NotTo(HaveOccurred())
		Expect(dec).To(BeNumerically("~", 4.2, 1e-9))
	})

	It("rejects a wire integer outside bounds", func() {
		_, err := d.Decode(int64(2000))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Int", func() {
	d := datainfo.Int(datainfo.IntOpt{Min: 0, Max: 255})

	It("round-trips", func() {
		enc, _ := d.Encode(int64(7))
		dec, err := d.Decode(enc)
		Expect(err).NotTo(HaveOccurred())
		Expect(dec).To(Equal(int64(7)))
	})

	It("rejects out of range", func() {
		_, err := d.Encode(int64(256))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Blob", func() {
	d := datainfo.Blob(datainfo.BlobOpt{MinBytes: 1, MaxBytes: 8})

	It("round-trips through base64", func() {
		enc, err := d.Encode([]byte("hello"))
		Expect(err).NotTo(HaveOccurred())
		Expect(enc).To(Equal("aGVsbG8="))
		dec, err := d.Decode(enc)
		Expect(err).NotTo(HaveOccurred())
		Expect(dec).To(Equal([]byte("hello")))
	})

	It("rejects a blob too long", func() {
		_, err := d.Encode([]byte("this is way too long"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects invalid base64 on decode", func() {
		_, err := d.Decode("not-base64!!")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Str", func() {
	d := datainfo.Str(datainfo.StrOpt{MinChars: 0, MaxChars: 5})

	It("accepts a value within bounds", func() {
		_, err := d.Encode("hi")
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a value exceeding maxchars", func() {
		_, err := d.Encode("toolong")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ArrayOf", func() {
	d := datainfo.ArrayOf(datainfo.ArrayOfOpt{
		Min:     1,
		Max:     3,
		Element: datainfo.Int(datainfo.IntOpt{Min: 0, Max: 10}),
	})

	It("amends a nested validation error with a 1-based item index", func() {
		_, err := d.Decode([]interface{}{int64(1), int64(99)})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("in item 2"))
	})

	It("rejects a length outside bounds", func() {
		_, err := d.Decode([]interface{}{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Tuple", func() {
	d := datainfo.Tuple(
		datainfo.Int(datainfo.IntOpt{Min: 0, Max: 10}),
		datainfo.Str(datainfo.StrOpt{MaxChars: 16}),
	)

	It("amends a nested validation error with a 0-based tuple index", func() {
		_, err := d.Decode([]interface{}{int64(99), "ok"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("in item 0"))
	})

	It("rejects the wrong element count", func() {
		_, err := d.Decode([]interface{}{int64(1)})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Enum", func() {
	d := datainfo.Enum("ControlMode", map[string]int64{"PID": 0, "OPEN_LOOP": 1})

	It("accepts the member name and its integer value identically", func() {
		byName, err := d.Decode("PID")
		Expect(err).NotTo(HaveOccurred())
		byValue, err := d.Decode(int64(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(byName).To(Equal(byValue))
	})

	It("rejects an unknown member", func() {
		_, err := d.Decode("NONSENSE")
		Expect(err).To(HaveOccurred())
	})

	It("always emits the integer on encode", func() {
		enc, err := d.Encode(int64(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(enc).To(Equal(int64(1)))
	})
})

var _ = Describe("Struct", func() {
	d := datainfo.Struct(
		datainfo.StructField{Name: "a", Type: datainfo.Int(datainfo.IntOpt{Min: 0, Max: 10})},
		datainfo.StructField{Name: "b", Type: datainfo.Str(datainfo.StrOpt{MaxChars: 10}), Optional: true},
	)

	It("allows an optional field to be absent", func() {
		dec, err := d.Decode(map[string]interface{}{"a": int64(1)})
		Expect(err).NotTo(HaveOccurred())
		m := dec.(map[string]interface{})
		_, hasB := m["b"]
		Expect(hasB).To(BeFalse())
	})

	It("rejects a missing mandatory field", func() {
		_, err := d.Decode(map[string]interface{}{"b": "x"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("StatusType", func() {
	It("encodes and decodes the predefined (code, text) tuple", func() {
		v := datainfo.StatusValue(datainfo.StatusBusy, "ramping")
		enc, err := datainfo.StatusType.Encode(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(enc).To(Equal([]interface{}{int64(300), "ramping"}))

		dec, err := datainfo.StatusType.Decode(enc)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp.Diff(dec, v)).To(BeEmpty())
		Expect(datainfo.IsBusy(dec)).To(BeTrue())
	})
})
