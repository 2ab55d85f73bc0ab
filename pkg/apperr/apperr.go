// Package apperr defines the error taxonomy shared by the round engine and
// its transports.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for reporting and HTTP mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindUnauthorized
	KindInvalidState
	KindInvalidTeamCount
	KindInvalidConfiguration
	KindAlreadyInProgress
	KindTicketExpired
)

var kindNames = map[Kind]string{
	KindInternal:             "internal",
	KindInvalidInput:         "invalid_input",
	KindNotFound:             "not_found",
	KindUnauthorized:         "unauthorized",
	KindInvalidState:         "invalid_state",
	KindInvalidTeamCount:     "invalid_team_count",
	KindInvalidConfiguration: "invalid_configuration",
	KindAlreadyInProgress:    "already_in_progress",
	KindTicketExpired:        "ticket_expired",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its Kind.
var (
	ErrInternal             = &Error{Kind: KindInternal, Message: "internal error"}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrInvalidState         = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrInvalidTeamCount     = &Error{Kind: KindInvalidTeamCount, Message: "invalid team count"}
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration, Message: "invalid configuration"}
	ErrAlreadyInProgress    = &Error{Kind: KindAlreadyInProgress, Message: "draw generation already in progress"}
	ErrTicketExpired        = &Error{Kind: KindTicketExpired, Message: "draw ticket expired"}
)

// Error is a classified error. Field names the offending input for
// KindInvalidInput.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of kind k.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(k Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), Err: err}
}

func InvalidInput(field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, format, args...)
}

func InvalidTeamCount(format string, args ...any) *Error {
	return New(KindInvalidTeamCount, format, args...)
}

func InvalidConfiguration(format string, args ...any) *Error {
	return New(KindInvalidConfiguration, format, args...)
}

func AlreadyInProgress(format string, args ...any) *Error {
	return New(KindAlreadyInProgress, format, args...)
}

func TicketExpired(format string, args ...any) *Error {
	return New(KindTicketExpired, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsDomain reports whether err carries a kind other than KindInternal.
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind != KindInternal
}
