package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// Error kinds. Every [Error] carries exactly one of these, so callers can branch with [errors.Is].
var (
	ErrValidation       = errors.New("validation error")
	ErrTransport        = errors.New("transport error")
	ErrProtocol         = errors.New("protocol error")
	ErrDuplicateAccount = errors.New("duplicate account")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrInvalidListName  = errors.New("invalid list name")
	ErrAuth             = errors.New("authentication error")
	ErrNotConnected     = errors.New("not connected")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrStaleMove        = errors.New("stale move")
)

// Error is the user-facing error type.
//
// Kind is one of the sentinel kinds above, Message is the localized text shown to the user
// and Err is the underlying cause (possibly nil).
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to [errors.Is] and [errors.As].
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an [Error] whose message is looked up in the default catalog.
func NewError(kind error, id MessageID, cause error) *Error {
	return &Error{Kind: kind, Message: Message(id), Err: cause}
}

// Validation is shorthand for a [ErrValidation] error with the given message.
func Validation(id MessageID) *Error {
	return NewError(ErrValidation, id, nil)
}

// UserMessage returns the text to show a user for err.
//
// Typed errors yield their localized message, anything else falls back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
