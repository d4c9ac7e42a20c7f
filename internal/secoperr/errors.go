/*
 * MIT License
 *
 * Copyright (c) 2026 the secop contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package secoperr classifies node-internal failures by Kind and maps each
// Kind to the wire error class a client sees in an `error <class> [...]`
// reply (spec §7). It deliberately does not chase the generality of a
// general-purpose error-code package: the wire class table is closed and
// small, so a hand-rolled switch is clearer than a registry.
package secoperr

import "fmt"

// Kind is the internal failure classification. Several Kinds can map to the
// same wire Class (e.g. Timeout and HardwareError both collapse to
// CommunicationFailed; Disabled keeps its own Disabled class).
type Kind uint8

const (
	KindConfig Kind = iota
	KindProgramming
	KindParsing
	KindProtocol
	KindNoSuchModule
	KindNoSuchParameter
	KindNoSuchCommand
	KindCommandFailed
	KindCommandRunning
	KindReadOnly
	KindBadValue
	KindCommunicationFailed
	KindTimeout
	KindHardwareError
	KindIsBusy
	KindIsError
	KindDisabled
)

// Class is the wire-visible error class string, e.g. "BadValue".
type Class string

const (
	ClassInternalError        Class = "InternalError"
	ClassProtocolError        Class = "ProtocolError"
	ClassNoSuchModule         Class = "NoSuchModule"
	ClassNoSuchParameter      Class = "NoSuchParameter"
	ClassNoSuchCommand        Class = "NoSuchCommand"
	ClassCommandFailed        Class = "CommandFailed"
	ClassCommandRunning       Class = "CommandRunning"
	ClassReadOnly             Class = "ReadOnly"
	ClassBadValue             Class = "BadValue"
	ClassCommunicationFailed  Class = "CommunicationFailed"
	ClassIsBusy               Class = "IsBusy"
	ClassIsError              Class = "IsError"
	ClassDisabled             Class = "Disabled"
)

// WireClass returns the class a client sees for this Kind. Timeout and
// HardwareError collapse onto CommunicationFailed on the wire;
// Error.Kind() still reports the finer-grained value for local logging.
func (k Kind) WireClass() Class {
	switch k {
	case KindConfig, KindProgramming, KindParsing:
		return ClassInternalError
	case KindProtocol:
		return ClassProtocolError
	case KindNoSuchModule:
		return ClassNoSuchModule
	case KindNoSuchParameter:
		return ClassNoSuchParameter
	case KindNoSuchCommand:
		return ClassNoSuchCommand
	case KindCommandFailed:
		return ClassCommandFailed
	case KindCommandRunning:
		return ClassCommandRunning
	case KindReadOnly:
		return ClassReadOnly
	case KindBadValue:
		return ClassBadValue
	case KindCommunicationFailed, KindTimeout, KindHardwareError:
		return ClassCommunicationFailed
	case KindIsBusy:
		return ClassIsBusy
	case KindIsError:
		return ClassIsError
	case KindDisabled:
		return ClassDisabled
	default:
		return ClassInternalError
	}
}

// Error is a node-internal error carrying a Kind, a human message and the
// wire class it maps to. It is the type every module read/change/do hook,
// every datainfo validation, and every dispatcher routing failure returns.
type Error interface {
	error

	// Kind returns the internal classification.
	Kind() Kind

	// Class returns the wire-visible class for this error.
	Class() Class

	// Amend returns a copy of this error with note appended to the message,
	// used to pinpoint array/tuple element failures ("in item 3").
	Amend(note string) Error
}

type secopError struct {
	kind Kind
	msg  string
}

// New builds an Error of the given Kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) Error {
	return &secopError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given Kind from an existing error's message.
// An err that already is one of this package's Errors is returned as is,
// keeping its own Kind.
func Wrap(kind Kind, err error) Error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*secopError); ok {
		return se
	}
	return &secopError{kind: kind, msg: err.Error()}
}

func (e *secopError) Error() string { return e.msg }

func (e *secopError) Kind() Kind { return e.kind }

func (e *secopError) Class() Class { return e.kind.WireClass() }

func (e *secopError) Amend(note string) Error {
	return &secopError{kind: e.kind, msg: fmt.Sprintf("%s (%s)", e.msg, note)}
}

// BadValue is a convenience constructor for the most common validation
// failure raised by pkg/datainfo.
func BadValue(format string, args ...interface{}) Error {
	return New(KindBadValue, format, args...)
}

// NoSuchModule is a convenience constructor used by the dispatcher. name is
// accepted for the caller's own logging but never appears in the error
// itself: this kind's wire message is always empty.
func NoSuchModule(name string) Error {
	return New(KindNoSuchModule, "")
}

// NoSuchParameter is a convenience constructor used by module workers; see
// NoSuchModule on why module/param don't appear in the message.
func NoSuchParameter(module, param string) Error {
	return New(KindNoSuchParameter, "")
}

// NoSuchCommand is a convenience constructor used by module workers; see
// NoSuchModule on why module/cmd don't appear in the message.
func NoSuchCommand(module, cmd string) Error {
	return New(KindNoSuchCommand, "")
}

// ReadOnly is a convenience constructor for a write attempt on a read-only
// parameter.
func ReadOnly(module, param string) Error {
	return New(KindReadOnly, "parameter %s:%s is read-only", module, param)
}

// Protocol is a convenience constructor used by pkg/proto for malformed
// wire messages.
func Protocol(format string, args ...interface{}) Error {
	return New(KindProtocol, format, args...)
}
