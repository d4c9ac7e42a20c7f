package proto

import (
	"encoding/json"
	"fmt"

	"github.com/nabbar/secop/internal/secoperr"
)

// Format renders msg as the line that goes out over the wire, without a
// trailing newline. It is total over every outward-bound Kind; KindQuit
// cannot be formatted and returns an error.
func Format(msg Msg) (string, error) {
	switch msg.Kind {
	case KindIdn:
		return verbIdn, nil

	case KindIdnReply:
		return msg.Encoded, nil

	case KindDescribe:
		return verbDescribe, nil

	case KindDescribing:
		body, err := marshal(msg.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s . %s", verbDescribing, body), nil

	case KindActivate:
		return formatModuleOnly(verbActivate, msg.Module), nil

	case KindActive:
		return formatModuleOnly(verbActive, msg.Module), nil

	case KindDeactivate:
		return formatModuleOnly(verbDeactivate, msg.Module), nil

	case KindInactive:
		return formatModuleOnly(verbInactive, msg.Module), nil

	case KindRead:
		return fmt.Sprintf("%s %s:%s", verbRead, msg.Module, msg.Accessible), nil

	case KindChange:
		body, err := marshal(msg.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s:%s %s", verbChange, msg.Module, msg.Accessible, body), nil

	case KindChanged:
		body, err := marshalTimed(msg.Value, msg.Timestamp)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s:%s %s", verbChanged, msg.Module, msg.Accessible, body), nil

	case KindDo:
		body, err := marshal(msg.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s:%s %s", verbDo, msg.Module, msg.Accessible, body), nil

	case KindDone:
		body, err := marshalTimed(msg.Value, msg.Timestamp)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s:%s %s", verbDone, msg.Module, msg.Accessible, body), nil

	case KindUpdate:
		body, err := marshalTimed(msg.Value, msg.Timestamp)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s:%s %s", verbUpdate, msg.Module, msg.Accessible, body), nil

	case KindPing:
		if msg.Token == "" {
			return verbPing, nil
		}
		return fmt.Sprintf("%s %s", verbPing, msg.Token), nil

	case KindPong:
		body, err := marshalTimed(nil, msg.Timestamp)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", verbPong, msg.Token, body), nil

	case KindError:
		body, err := marshal([]interface{}{msg.OriginalLine, msg.Message, map[string]interface{}{}})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", verbError, msg.Class, body), nil

	default:
		return "", secoperr.Wrap(secoperr.KindProgramming, fmt.Errorf("kind %d cannot be formatted onto the wire", msg.Kind))
	}
}

func formatModuleOnly(verb, module string) string {
	if module == "" {
		return verb
	}
	return fmt.Sprintf("%s %s", verb, module)
}

func marshal(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func marshalTimed(value interface{}, ts float64) (string, error) {
	return marshal([]interface{}{value, map[string]interface{}{"t": ts}})
}
