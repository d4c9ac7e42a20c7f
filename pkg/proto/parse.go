package proto

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nabbar/secop/internal/secoperr"
)

// MaxLineBytes bounds a single incoming line; the connection handler closes
// the socket if it is exceeded (spec §4.1).
const MaxLineBytes = 1 << 20

// msgRE splits a line into verb, spec and JSON body, mirroring the grammar
// of spec §4.1: `VERB [SPEC [JSON]]`.
var msgRE = regexp.MustCompile(`^([*?\w]+)(?:\s([\w:.<>]+)(?:\s(.*))?)?$`)

// Parse decodes one wire line into an IncomingMsg. On success err is nil.
// On failure err classifies the problem (always KindProtocol) and the
// caller is expected to quote line as the reply's first report element via
// NewError(line, err), per the parse contract in spec §4.1.
func Parse(line string) (IncomingMsg, secoperr.Error) {
	if line == IdentReply {
		return IncomingMsg{Line: line, Msg: Msg{Kind: KindIdnReply, Encoded: IdentReply}}, nil
	}

	groups := msgRE.FindStringSubmatch(line)
	if groups == nil {
		return IncomingMsg{}, secoperr.Protocol("invalid message format")
	}
	verb, spec, jsonStr := groups[1], groups[2], groups[3]

	body, decErr := decodeJSON(jsonStr)
	if decErr != nil {
		return IncomingMsg{}, secoperr.Protocol("invalid JSON")
	}

	msg, err := parseVerb(verb, spec, body)
	if err != nil {
		return IncomingMsg{}, err
	}
	return IncomingMsg{Line: line, Msg: msg}, nil
}

func parseVerb(verb, spec string, body interface{}) (Msg, secoperr.Error) {
	switch verb {
	case verbIdn:
		return Msg{Kind: KindIdn}, nil

	case verbDescribe:
		return Msg{Kind: KindDescribe}, nil

	case verbDescribing:
		if spec != "." {
			return Msg{}, secoperr.Protocol("describing id must be \".\"")
		}
		return Msg{Kind: KindDescribing, Id: ".", Value: body}, nil

	case verbActivate, verbActive, verbDeactivate, verbInactive:
		return Msg{Kind: verbKind(verb), Module: spec}, nil

	case verbRead:
		module, param, ok := splitAccessible(spec)
		if !ok {
			return Msg{}, secoperr.Protocol("missing accessible name in %q", verb)
		}
		return Msg{Kind: KindRead, Module: module, Accessible: param}, nil

	case verbChange:
		module, param, ok := splitAccessible(spec)
		if !ok {
			return Msg{}, secoperr.Protocol("missing accessible name in %q", verb)
		}
		return Msg{Kind: KindChange, Module: module, Accessible: param, Value: body}, nil

	case verbDo:
		module, command, ok := splitAccessible(spec)
		if !ok {
			return Msg{}, secoperr.Protocol("missing accessible name in %q", verb)
		}
		return Msg{Kind: KindDo, Module: module, Accessible: command, Value: body}, nil

	case verbUpdate, verbChanged, verbDone:
		module, acc, ok := splitAccessible(spec)
		if !ok {
			return Msg{}, secoperr.Protocol("missing accessible name in %q", verb)
		}
		value, ts, terr := decomposeTimed(body)
		if terr != nil {
			return Msg{}, terr
		}
		return Msg{Kind: verbKind(verb), Module: module, Accessible: acc, Value: value, Timestamp: ts}, nil

	case verbPing:
		return Msg{Kind: KindPing, Token: spec}, nil

	case verbPong:
		_, ts, terr := decomposeTimed(body)
		if terr != nil {
			return Msg{}, terr
		}
		return Msg{Kind: KindPong, Token: spec, Timestamp: ts}, nil

	case verbError:
		origLine, message, rerr := decomposeReport(body)
		if rerr != nil {
			return Msg{}, rerr
		}
		return Msg{Kind: KindError, Class: secoperr.Class(spec), OriginalLine: origLine, Message: message}, nil

	default:
		return Msg{}, secoperr.Protocol("no such message type %q", verb)
	}
}

func verbKind(verb string) Kind {
	switch verb {
	case verbActivate:
		return KindActivate
	case verbActive:
		return KindActive
	case verbDeactivate:
		return KindDeactivate
	case verbInactive:
		return KindInactive
	case verbUpdate:
		return KindUpdate
	case verbChanged:
		return KindChanged
	case verbDone:
		return KindDone
	default:
		return KindError
	}
}

// splitAccessible splits "module:accessible" on the first colon. ok is
// false when there is no colon at all (the verb required one and got none).
func splitAccessible(spec string) (module, accessible string, ok bool) {
	module, accessible, found := strings.Cut(spec, ":")
	return module, accessible, found
}

func decodeJSON(jsonStr string) (interface{}, error) {
	if jsonStr == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(jsonStr)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// decomposeTimed splits the [value, {"t": timestamp}] wrapper used by
// update/changed/done/pong (spec §4.1 format contract).
func decomposeTimed(body interface{}) (interface{}, float64, secoperr.Error) {
	arr, ok := body.([]interface{})
	if !ok || len(arr) != 2 {
		return nil, 0, secoperr.Protocol("expected [value, {\"t\": timestamp}]")
	}
	stamp, ok := arr[1].(map[string]interface{})
	if !ok {
		return nil, 0, secoperr.Protocol("expected timestamp object")
	}
	ts, ok := numberOf(stamp["t"])
	if !ok {
		return nil, 0, secoperr.Protocol("expected numeric \"t\" field")
	}
	return arr[0], ts, nil
}

// decomposeReport splits the [originalLine, message, {}] report array used
// by error replies.
func decomposeReport(body interface{}) (line, message string, _ secoperr.Error) {
	arr, ok := body.([]interface{})
	if !ok || len(arr) < 2 {
		return "", "", secoperr.Protocol("expected [line, message, {}]")
	}
	line, lok := arr[0].(string)
	message, mok := arr[1].(string)
	if !lok || !mok {
		return "", "", secoperr.Protocol("expected string line and message")
	}
	return line, message, nil
}

func numberOf(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
