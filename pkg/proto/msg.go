package proto

import "github.com/nabbar/secop/internal/secoperr"

// Kind discriminates the variants of Msg.
type Kind uint8

const (
	KindIdn Kind = iota
	KindIdnReply
	KindDescribe
	KindDescribing
	KindActivate
	KindActive
	KindDeactivate
	KindInactive
	KindDo
	KindDone
	KindChange
	KindChanged
	KindRead
	KindPing
	KindPong
	KindError
	KindUpdate
	// KindQuit is not a wire message; the reader goroutine synthesizes it to
	// tell the dispatcher a connection is gone (spec §4.3).
	KindQuit
)

// wire verb literals (spec §4.1 grammar).
const (
	verbIdn        = "*IDN?"
	verbDescribe   = "describe"
	verbDescribing = "describing"
	verbActivate   = "activate"
	verbActive     = "active"
	verbDeactivate = "deactivate"
	verbInactive   = "inactive"
	verbPing       = "ping"
	verbPong       = "pong"
	verbError      = "error"
	verbDo         = "do"
	verbDone       = "done"
	verbChange     = "change"
	verbChanged    = "changed"
	verbRead       = "read"
	verbUpdate     = "update"
)

// IdentReply is the fixed descriptive identifier string sent in answer to
// *IDN?, kept compatible with SCPI identify strings (spec §4.1).
const IdentReply = `SINE2020&ISSE,SECoP,V2018-11-07,v1.0\beta`

// Msg is any message exchanged over the wire, plus the internal Quit
// sentinel. Only the fields relevant to Kind are populated; the rest are
// left at their zero value.
type Msg struct {
	Kind Kind

	// Module and Accessible address a module:parameter or module:command
	// pair. Accessible is empty for module-only verbs (activate/active/
	// deactivate/inactive/describe-node) and for the global activate form.
	Module     string
	Accessible string

	// Token carries ping/pong's opaque token.
	Token string

	// Id is "." for the (only) describing reply.
	Id string

	// Encoded is the literal bytes of an *IDN?  reply.
	Encoded string

	// Class is the wire error class of an error reply.
	Class secoperr.Class

	// Value is the JSON body: the change/do argument, the read-less value
	// carried by update/changed/done/pong (paired with Timestamp), or the
	// describing node structure.
	Value interface{}

	// Timestamp is the "t" field accompanying update/changed/done/pong.
	Timestamp float64

	// OriginalLine and Message back an error reply's report array
	// ["line", "message", {}].
	OriginalLine string
	Message      string
}

// IncomingMsg pairs a successfully parsed Msg with the raw line it came
// from, needed if a later processing stage has to report an error quoting
// the original input (spec §4.1).
type IncomingMsg struct {
	Line string
	Msg  Msg
}

// NewUpdate builds an `update module:param [value,{"t":ts}]` message.
func NewUpdate(module, param string, value interface{}, ts float64) Msg {
	return Msg{Kind: KindUpdate, Module: module, Accessible: param, Value: value, Timestamp: ts}
}

// NewChanged builds a `changed module:param [value,{"t":ts}]` message.
func NewChanged(module, param string, value interface{}, ts float64) Msg {
	return Msg{Kind: KindChanged, Module: module, Accessible: param, Value: value, Timestamp: ts}
}

// NewDone builds a `done module:command [value,{"t":ts}]` message.
func NewDone(module, command string, value interface{}, ts float64) Msg {
	return Msg{Kind: KindDone, Module: module, Accessible: command, Value: value, Timestamp: ts}
}

// NewDescribing builds the `describing . <structure>` reply.
func NewDescribing(structure interface{}) Msg {
	return Msg{Kind: KindDescribing, Id: ".", Value: structure}
}

// NewActive builds an `active [module]` reply; module == "" is the global
// form (spec §4.1).
func NewActive(module string) Msg {
	return Msg{Kind: KindActive, Module: module}
}

// NewInactive builds an `inactive [module]` reply.
func NewInactive(module string) Msg {
	return Msg{Kind: KindInactive, Module: module}
}

// NewPong builds a `pong token [null,{"t":ts}]` reply.
func NewPong(token string, ts float64) Msg {
	return Msg{Kind: KindPong, Token: token, Timestamp: ts}
}

// NewIdnReply builds the fixed `*IDN?` answer.
func NewIdnReply() Msg {
	return Msg{Kind: KindIdnReply, Encoded: IdentReply}
}

// NewError builds an `error class [originalLine,message,{}]` reply from a
// secoperr.Error, quoting the line that provoked it.
func NewError(originalLine string, err secoperr.Error) Msg {
	return Msg{Kind: KindError, Class: err.Class(), OriginalLine: originalLine, Message: err.Error()}
}

// Quit is the handler-to-dispatcher sentinel for a closed connection. It is
// never formatted onto the wire.
var Quit = Msg{Kind: KindQuit}
