package shared

import (
	"errors"
	"strings"
)

// Rule maps a substring of a remote error message to an error kind and a user-facing message.
type Rule struct {
	Substring string
	Kind      error
	Message   MessageID
}

// Table is an ordered list of [Rule] values with a fallback used when nothing matches.
//
// Order matters: the first rule whose substring occurs in the message wins.
type Table struct {
	Rules    []Rule
	Fallback Rule
}

// AuthTable translates identity provider failures.
var AuthTable = Table{
	Rules: []Rule{
		{"provider is not enabled", ErrAuth, MsgProviderDisabled},
		{"Invalid login credentials", ErrAuth, MsgInvalidCredentials},
		{"Email not confirmed", ErrAuth, MsgEmailNotConfirmed},
		{"Too many requests", ErrAuth, MsgTooManyRequests},
		{"User already registered", ErrDuplicateAccount, MsgAlreadyRegistered},
		{"Password should be at least 6 characters", ErrValidation, MsgPasswordTooShort},
		{"Invalid email", ErrValidation, MsgInvalidEmail},
		{"duplicate key value violates unique constraint", ErrDuplicateAccount, MsgAlreadyRegistered},
		{"NetworkError", ErrTransport, MsgNetwork},
		{"JWT expired", ErrAuth, MsgSessionExpired},
		{"AuthApiError", ErrAuth, MsgAuthServer},
	},
	Fallback: Rule{Kind: ErrAuth, Message: MsgAuthFailed},
}

// StoreTable translates collection store failures from PostgREST, Postgres and SQLite.
var StoreTable = Table{
	Rules: []Rule{
		{"duplicate key value", ErrDuplicateEntry, MsgDuplicateEntry},
		{"UNIQUE constraint failed", ErrDuplicateEntry, MsgDuplicateEntry},
		{"violates check constraint", ErrInvalidListName, MsgInvalidListName},
		{"CHECK constraint failed", ErrInvalidListName, MsgInvalidListName},
		{"JWT expired", ErrNotAuthenticated, MsgSessionExpired},
	},
	Fallback: Rule{Kind: ErrTransport, Message: MsgListUpdateFailed},
}

// Match returns the first rule whose substring occurs in msg, or the fallback.
func (t Table) Match(msg string) Rule {
	for _, r := range t.Rules {
		if strings.Contains(msg, r.Substring) {
			return r
		}
	}
	return t.Fallback
}

// Translate converts a raw remote error into an [*Error] using table t.
//
// Errors that are already typed pass through untouched, nil stays nil.
func Translate(t Table, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	r := t.Match(err.Error())
	return NewError(r.Kind, r.Message, err)
}
