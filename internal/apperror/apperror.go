// Package apperror defines the closed set of failure kinds surfaced to API
// clients and the reporter that turns any error into a wire status and message.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies a failure. The zero value is Internal.
type Kind int

const (
	Internal Kind = iota
	BadInput
	Unauthenticated
	Forbidden
	NotFound
	Conflict
)

// GenericMessage replaces the detail of every Internal failure on the wire.
const GenericMessage = "An error occurred on the server"

var kinds = map[Kind]struct {
	name    string
	status  int
	message string
}{
	Internal:        {"internal", http.StatusInternalServerError, GenericMessage},
	BadInput:        {"bad_input", http.StatusBadRequest, "Invalid request data"},
	Unauthenticated: {"unauthenticated", http.StatusUnauthorized, "Authorization required"},
	Forbidden:       {"forbidden", http.StatusForbidden, "Access denied"},
	NotFound:        {"not_found", http.StatusNotFound, "Resource not found"},
	Conflict:        {"conflict", http.StatusConflict, "Resource already exists"},
}

// String returns a stable lower-case name, used as a metrics label.
func (k Kind) String() string {
	if d, ok := kinds[k]; ok {
		return d.name
	}
	return kinds[Internal].name
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if d, ok := kinds[k]; ok {
		return d.status
	}
	return http.StatusInternalServerError
}

// Message returns the template message used when a failure carries none.
func (k Kind) Message() string {
	if d, ok := kinds[k]; ok {
		return d.message
	}
	return GenericMessage
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New builds a classified failure with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err. The wrapped error stays reachable through errors.Is/As
// but its text never reaches the client.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Message()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return Internal, false
}
