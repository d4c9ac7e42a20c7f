package proto_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/secop/internal/secoperr"
	"github.com/nabbar/secop/pkg/proto"
)

// normalize collapses json.Number into float64 recursively so a value that
// went out through Format and came back through Parse can be compared
// against the Go literal it started from, independent of which numeric
// representation each side happens to use.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64, int, int64:
		f, _ := toFloat(t)
		return f
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	default:
		return v
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func normalizeMsg(m proto.Msg) proto.Msg {
	m.Value = normalize(m.Value)
	return m
}

func roundTrip(m proto.Msg) proto.Msg {
	line, err := proto.Format(m)
	Expect(err).NotTo(HaveOccurred())
	incoming, perr := proto.Parse(line)
	Expect(perr).NotTo(HaveOccurred())
	return incoming.Msg
}

var _ = Describe("Parsing round-trips", func() {
	It("round-trips an update", func() {
		m := proto.NewUpdate("cryo", "value", 3.5, 1000.0)
		Expect(normalizeMsg(roundTrip(m))).To(Equal(normalizeMsg(m)))
	})

	It("round-trips a changed", func() {
		m := proto.NewChanged("cryo", "target", 4.0, 1000.5)
		Expect(normalizeMsg(roundTrip(m))).To(Equal(normalizeMsg(m)))
	})

	It("round-trips a done", func() {
		m := proto.NewDone("cryo", "stop", nil, 42.0)
		Expect(normalizeMsg(roundTrip(m))).To(Equal(normalizeMsg(m)))
	})

	It("round-trips a describing reply", func() {
		m := proto.NewDescribing(map[string]interface{}{"equipment_id": "x"})
		Expect(normalizeMsg(roundTrip(m))).To(Equal(normalizeMsg(m)))
	})

	It("round-trips module-scoped active", func() {
		m := proto.NewActive("cryo")
		Expect(roundTrip(m)).To(Equal(m))
	})

	It("round-trips global active", func() {
		m := proto.NewActive("")
		Expect(roundTrip(m)).To(Equal(m))
	})

	It("round-trips global inactive", func() {
		m := proto.NewInactive("")
		Expect(roundTrip(m)).To(Equal(m))
	})

	It("round-trips a pong", func() {
		m := proto.NewPong("tok1", 12345.0)
		Expect(roundTrip(m)).To(Equal(m))
	})

	It("round-trips an error reply", func() {
		m := proto.NewError("read nonsuch:value", secoperr.NoSuchModule("nonsuch"))
		Expect(roundTrip(m)).To(Equal(m))
	})

	It("round-trips *IDN? and its reply", func() {
		req := proto.Msg{Kind: proto.KindIdn}
		Expect(roundTrip(req)).To(Equal(req))

		reply := proto.NewIdnReply()
		Expect(roundTrip(reply)).To(Equal(reply))
	})
})

var _ = Describe("Parse failure modes", func() {
	It("rejects an unrecognized verb", func() {
		_, err := proto.Parse("frobnicate mod:value")
		Expect(err).To(HaveOccurred())
		Expect(err.Class()).To(Equal(secoperr.ClassProtocolError))
	})

	It("rejects a read missing the accessible part", func() {
		_, err := proto.Parse("read mod")
		Expect(err).To(HaveOccurred())
		Expect(err.Class()).To(Equal(secoperr.ClassProtocolError))
	})

	It("rejects unparseable JSON", func() {
		_, err := proto.Parse("change mod:target {not json")
		Expect(err).To(HaveOccurred())
		Expect(err.Class()).To(Equal(secoperr.ClassProtocolError))
	})
})

var _ = Describe("End-to-end wire scenarios", func() {
	It("answers *IDN? with the fixed identity string", func() {
		line, err := proto.Format(proto.NewIdnReply())
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal(`SINE2020&ISSE,SECoP,V2018-11-07,v1.0\beta`))
	})

	It("formats a NoSuchModule error for an unknown module read", func() {
		line, err := proto.Format(proto.NewError("read nonsuch:value", secoperr.NoSuchModule("nonsuch")))
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal(`error NoSuchModule ["read nonsuch:value","",{}]`))
	})

	It("formats a BadValue error for an out-of-range change", func() {
		badValueErr := secoperr.BadValue("expected double between 0 and 10")
		line, err := proto.Format(proto.NewError("change mod:target 50", badValueErr))
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal(`error BadValue ["change mod:target 50","expected double between 0 and 10",{}]`))
	})

	It("formats a ping reply carrying the client's token", func() {
		line, err := proto.Format(proto.NewPong("tok1", 1000.0))
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal(`pong tok1 [null,{"t":1000}]`))
	})
})
