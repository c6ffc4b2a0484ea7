// Package errors provides kind-based error handling shared by the engine and
// the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Error kinds. Invalid and NotFound are ordinary per-request failures;
// Internal marks an invariant violation inside the matching core and is never
// mapped to a client error class.
const (
	KindInvalid  = "InvalidInput"
	KindNotFound = "NotFound"
	KindInternal = "InvariantViolation"
)

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// Error is a kind-tagged error carrying an optional cause and field details.
type Error struct {
	// Kind is the error class, one of the Kind* constants
	Kind string `json:"kind"`
	// Message is the human readable description
	Message string `json:"message"`
	// Fields is set for validation failures
	Fields []FieldError `json:"fields,omitempty"`

	cause error
}

var _ error = (*Error)(nil)

// Sentinel errors for the three kinds. Use Explain/WithField to derive
// specific instances; Is matches on kind.
var (
	Invalid  = &Error{Kind: KindInvalid}
	NotFound = &Error{Kind: KindNotFound}
	Internal = &Error{Kind: KindInternal}
)

func New(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Error implements error
func (e *Error) Error() string {
	str := fmt.Sprintf("[%s]", e.Kind)
	if e.Message != "" {
		str += " " + e.Message
	}
	for _, f := range e.Fields {
		str += fmt.Sprintf(" %s", f)
	}
	if e.cause != nil {
		str += fmt.Sprintf(" (%s)", e.cause)
	}
	return str
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Wrap returns a copy of the error with the given cause attached
func (e *Error) Wrap(cause error) *Error {
	err := *e
	err.cause = cause
	return &err
}

// Explain returns a copy of the error with the given message
func (e *Error) Explain(message string, args ...any) *Error {
	err := *e
	err.Message = fmt.Sprintf(message, args...)
	return &err
}

// WithField returns a copy of the error with an additional field error
func (e *Error) WithField(field, message string) *Error {
	err := *e
	err.Fields = append(append([]FieldError(nil), e.Fields...), FieldError{Field: field, Message: message})
	return &err
}

// Is matches errors by kind, so errors.Is(err, errors.Invalid) holds for any
// derived Invalid error.
func (e *Error) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if other, ok := target.(*Error); ok {
		return other.Kind == e.Kind
	}
	if e.cause != nil {
		return Is(e.cause, target)
	}
	return false
}

// StatusCode maps an error to the HTTP status the transport layer should
// return. Unknown errors are treated as internal.
func StatusCode(err error) int {
	var e *Error
	if !As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
