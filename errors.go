package mirrordb

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes store failures. There are exactly three kinds;
// no further subclassing.
type ErrorKind string

const (
	// KindMissingValue indicates a required field is absent: the id on
	// a write, or the looked-up record on an increment.
	KindMissingValue ErrorKind = "MISSING_VALUE"

	// KindParseException indicates stored serialized data could not be
	// decoded back to a structured value.
	KindParseException ErrorKind = "PARSE_EXCEPTION"

	// KindInvalidType indicates an argument-shape violation, a
	// schema/column type mismatch, use of an unregistered table, or a
	// wrapped storage-engine statement failure.
	KindInvalidType ErrorKind = "INVALID_TYPE"
)

// Error is the single error type raised by store operations. It
// carries a kind and a human-readable message; storage-engine failures
// are wrapped with the original message embedded.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsMissingValue reports whether err is a MissingValue store error.
// Uses errors.As to handle wrapped errors.
func IsMissingValue(err error) bool {
	return kindOf(err) == KindMissingValue
}

// IsParseException reports whether err is a ParseException store error.
func IsParseException(err error) bool {
	return kindOf(err) == KindParseException
}

// IsInvalidType reports whether err is an InvalidType store error.
func IsInvalidType(err error) bool {
	return kindOf(err) == KindInvalidType
}

func kindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func missingValuef(format string, args ...any) *Error {
	return &Error{Kind: KindMissingValue, Message: fmt.Sprintf(format, args...)}
}

func invalidTypef(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidType, Message: fmt.Sprintf(format, args...)}
}

func parseException(message string, err error) *Error {
	return &Error{Kind: KindParseException, Message: message, Err: err}
}

// wrapStorage converts a storage-engine failure into an InvalidType
// store error, keeping the engine's message reachable via Unwrap.
func wrapStorage(op string, err error) *Error {
	return &Error{Kind: KindInvalidType, Message: op + " failed", Err: err}
}
