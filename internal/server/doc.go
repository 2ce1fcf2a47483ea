// Package server receives the OAuth redirect on a temporary localhost listener.
//
// [RunOAuthFlow] drives a browser sign-in end to end: it asks the auth gateway for a PKCE
// request, starts a [CallbackServer] on the configured address, opens the authorization URL
// and waits for the [OAuthHandler] to exchange the returned code. `shelf auth oauth` and the
// TUI's ctrl+o both go through it.
//
// The handler accepts one callback only. A state that does not match the request, or an
// error description in place of a code, fails the flow with a translated message.
//
// Routing is a thin [BasicRouter] over [http.ServeMux] with a [RequestLogger] middleware
// that leaves the query string (and the code in it) out of the log.
package server
