package datainfo

// StatusCode is the SECoP status-constant enum member (spec §4.2).
type StatusCode int64

const (
	StatusIdle      StatusCode = 100
	StatusWarn      StatusCode = 200
	StatusUnstable  StatusCode = 250
	StatusBusy      StatusCode = 300
	StatusError     StatusCode = 400
	StatusUnknown   StatusCode = 500
)

var statusMembers = map[string]int64{
	"IDLE":     int64(StatusIdle),
	"WARN":     int64(StatusWarn),
	"UNSTABLE": int64(StatusUnstable),
	"BUSY":     int64(StatusBusy),
	"ERROR":    int64(StatusError),
	"UNKNOWN":  int64(StatusUnknown),
}

var statusCodeEnum = Enum("StatusCode", statusMembers)

// StatusType is the predefined Tuple2(StatusCode enum, Str) datainfo used
// for every module's "status" parameter.
var StatusType Descriptor = Tuple(statusCodeEnum, Str(StrOpt{MaxChars: 1 << 20}))

// StatusValue builds the internal representation of a status tuple:
// []interface{}{int64(code), text}.
func StatusValue(code StatusCode, text string) interface{} {
	return []interface{}{int64(code), text}
}

// IsBusy reports whether a status tuple's code is StatusBusy. value must be
// the internal representation produced by StatusType.Decode or StatusValue.
func IsBusy(value interface{}) bool {
	arr, ok := value.([]interface{})
	if !ok || len(arr) != 2 {
		return false
	}
	code, ok := arr[0].(int64)
	return ok && StatusCode(code) == StatusBusy
}
