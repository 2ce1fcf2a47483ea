package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"golang.org/x/oauth2"
)

const refreshLeeway = 30 * time.Second

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// OAuthRequest is an in-flight PKCE authorization.
//
// URL is opened in the browser; the callback must echo State and its code is exchanged with Verifier.
type OAuthRequest struct {
	Provider   string
	URL        string
	State      string
	Verifier   string
	RedirectTo string
}

// AuthOptions configures an [AuthGateway]. A nil Provider means the backend is not configured.
type AuthOptions struct {
	Provider     IdentityProvider
	Hub          *SessionHub
	Store        SessionStore
	AuthorizeURL string
	Logger       *log.Logger
}

// AuthGateway is a thin pass-through to the identity service.
//
// It never hands a session back to callers: sign-in persists the tokens and reloads, and the
// session is observed through [AuthGateway.CurrentSession] or [AuthGateway.Subscribe].
type AuthGateway struct {
	provider     IdentityProvider
	hub          *SessionHub
	store        SessionStore
	authorizeURL string
	logger       *log.Logger
	now          func() time.Time
}

func NewAuthGateway(opts AuthOptions) *AuthGateway {
	if opts.Hub == nil {
		opts.Hub = NewSessionHub()
	}
	if opts.Store == nil {
		opts.Store = &MemorySessionStore{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &AuthGateway{
		provider:     opts.Provider,
		hub:          opts.Hub,
		store:        opts.Store,
		authorizeURL: opts.AuthorizeURL,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// AuthorizeURL returns the GoTrue authorize endpoint for a Supabase project URL.
func AuthorizeURL(supabaseURL string) string {
	return strings.TrimRight(supabaseURL, "/") + "/auth/v1/authorize"
}

func notConnected() error {
	return shared.NewError(shared.ErrNotConnected, shared.MsgNotConnected, nil)
}

// Connected reports whether an identity service is configured.
func (g *AuthGateway) Connected() bool { return g.provider != nil }

// CurrentSession returns the published session, or nil when signed out or not connected.
func (g *AuthGateway) CurrentSession() *models.Session {
	if !g.Connected() {
		return nil
	}
	return g.hub.Current()
}

// Subscribe registers onChange and delivers the current session immediately. Release the returned handle on teardown.
func (g *AuthGateway) Subscribe(onChange func(*models.Session)) func() {
	return g.hub.Subscribe(onChange)
}

// ValidateSignUp checks sign-up input locally.
func ValidateSignUp(email, password string) error {
	switch {
	case email == "" || password == "":
		return shared.Validation(shared.MsgMissingFields)
	case len([]rune(password)) < 6:
		return shared.Validation(shared.MsgPasswordTooShort)
	case !emailPattern.MatchString(email):
		return shared.Validation(shared.MsgInvalidEmail)
	}
	return nil
}

// SignUp registers a new account.
//
// Invalid input fails before any remote call. A registration reporting zero identities means the
// address is already taken and fails with [shared.ErrDuplicateAccount].
func (g *AuthGateway) SignUp(ctx context.Context, email, password string) error {
	if err := ValidateSignUp(email, password); err != nil {
		return err
	}
	if !g.Connected() {
		return notConnected()
	}

	res, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		g.logger.Warn("sign up failed", "error", err)
		return shared.Translate(shared.AuthTable, err)
	}
	if res == nil || res.User == nil {
		return shared.NewError(shared.ErrAuth, shared.MsgSignUpFailed, nil)
	}
	if res.Identities == 0 {
		return shared.NewError(shared.ErrDuplicateAccount, shared.MsgAlreadyRegistered, nil)
	}

	if res.Session != nil {
		if err := g.store.Save(res.Session); err != nil {
			return err
		}
		return g.Reload(ctx)
	}
	return nil
}

// SignIn authenticates with email and password, persists the tokens and reloads the session.
func (g *AuthGateway) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return shared.Validation(shared.MsgMissingFields)
	}
	if !g.Connected() {
		return notConnected()
	}

	s, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		g.logger.Warn("sign in failed", "error", err)
		return shared.Translate(shared.AuthTable, err)
	}
	if s == nil || s.AccessToken == "" {
		return shared.NewError(shared.ErrAuth, shared.MsgSignInFailed, nil)
	}

	if err := g.store.Save(s); err != nil {
		return err
	}
	return g.Reload(ctx)
}

// Reload re-derives the session from the persisted tokens and publishes the result.
//
// A valid access token is confirmed with the identity service, an expired or rejected one is refreshed.
// When neither works the persisted tokens are discarded and "no session" is published.
func (g *AuthGateway) Reload(ctx context.Context) error {
	if !g.Connected() {
		g.hub.Publish(nil)
		return notConnected()
	}

	stored, err := g.store.Load()
	if err != nil {
		g.logger.Warn("could not read stored session", "error", err)
		g.hub.Publish(nil)
		return err
	}
	if stored == nil {
		g.hub.Publish(nil)
		return nil
	}

	if !stored.Expired(g.now().Add(refreshLeeway)) {
		user, err := g.provider.User(ctx, stored.AccessToken)
		if err == nil && user != nil {
			s := *stored
			s.User = *user
			g.hub.Publish(&s)
			return nil
		}
		if errors.Is(err, shared.ErrTransport) {
			g.logger.Warn("could not reach identity service", "error", err)
			g.hub.Publish(nil)
			return err
		}
		g.logger.Debug("access token rejected, refreshing", "error", err)
	}

	refreshed, err := g.provider.Refresh(ctx, stored.RefreshToken)
	if err != nil || refreshed == nil || refreshed.AccessToken == "" {
		g.logger.Warn("session refresh failed", "error", err)
		g.hub.Publish(nil)
		if errors.Is(err, shared.ErrTransport) {
			return err
		}
		if clearErr := g.store.Clear(); clearErr != nil {
			g.logger.Warn("could not clear stored session", "error", clearErr)
		}
		if err == nil {
			err = fmt.Errorf("empty refresh response")
		}
		return shared.Translate(shared.AuthTable, err)
	}

	if err := g.store.Save(refreshed); err != nil {
		g.logger.Warn("could not persist refreshed session", "error", err)
	}
	g.hub.Publish(refreshed)
	return nil
}

// SignInWithOAuth builds a PKCE authorization request for provider.
//
// redirectTo is the application's own callback; the state is carried in its query string.
func (g *AuthGateway) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (*OAuthRequest, error) {
	if !g.Connected() {
		return nil, notConnected()
	}
	if provider == "" {
		return nil, fmt.Errorf("%w: oauth provider", shared.ErrMissingArgument)
	}

	callback, err := url.Parse(redirectTo)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect url %q", shared.ErrInvalidArgument, redirectTo)
	}
	state := shared.GenerateID()
	q := callback.Query()
	q.Set("state", state)
	callback.RawQuery = q.Encode()

	verifier := oauth2.GenerateVerifier()
	conf := oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: g.authorizeURL}}

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("provider", provider),
		oauth2.SetAuthURLParam("redirect_to", callback.String()),
	}
	if provider == "google" {
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}

	return &OAuthRequest{
		Provider:   provider,
		URL:        conf.AuthCodeURL(state, opts...),
		State:      state,
		Verifier:   verifier,
		RedirectTo: callback.String(),
	}, nil
}

// CompleteOAuth exchanges the authorization code from the callback, persists the tokens and reloads.
func (g *AuthGateway) CompleteOAuth(ctx context.Context, req *OAuthRequest, code string) error {
	if !g.Connected() {
		return notConnected()
	}
	if req == nil || code == "" {
		return shared.NewError(shared.ErrAuth, shared.MsgOAuthCallbackFailed, nil)
	}

	s, err := g.provider.ExchangeCode(ctx, code, req.Verifier)
	if err != nil {
		g.logger.Warn("code exchange failed", "provider", req.Provider, "error", err)
		return shared.Translate(shared.AuthTable, err)
	}
	if s == nil || s.AccessToken == "" {
		return shared.NewError(shared.ErrAuth, shared.MsgSignInFailed, nil)
	}

	if err := g.store.Save(s); err != nil {
		return err
	}
	return g.Reload(ctx)
}

// OAuthError translates an error description returned to the callback by the identity service.
func OAuthError(description string) error {
	if description == "" {
		return shared.NewError(shared.ErrAuth, shared.MsgOAuthCallbackFailed, nil)
	}
	return shared.Translate(shared.AuthTable, errors.New(description))
}

// SignOut revokes the session remotely (best effort), clears the stored tokens and publishes "no session".
func (g *AuthGateway) SignOut(ctx context.Context) error {
	if !g.Connected() {
		return notConnected()
	}

	cur := g.hub.Current()
	if cur == nil {
		if stored, err := g.store.Load(); err == nil {
			cur = stored
		}
	}
	if cur != nil && cur.AccessToken != "" {
		if err := g.provider.SignOut(ctx, cur.AccessToken); err != nil {
			g.logger.Warn("remote sign out failed", "error", err)
		}
	}

	if err := g.store.Clear(); err != nil {
		return err
	}
	g.hub.Publish(nil)
	return nil
}
