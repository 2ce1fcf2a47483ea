// GoTrue identity provider
package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// SignUpResult is what the identity service reports for a new registration.
//
// Session is nil unless the project auto-confirms email addresses.
type SignUpResult struct {
	User       *models.User
	Identities int
	Session    *models.Session
}

// IdentityProvider is the remote half of the [AuthGateway].
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	User(ctx context.Context, accessToken string) (*models.User, error)
	ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// GoTrueProvider adapts [gotrue.Client] to [IdentityProvider].
//
// The client has no context support, so each call runs in a goroutine and returns early when ctx is done.
type GoTrueProvider struct {
	client gotrue.Client
}

// NewGoTrueProvider creates a provider for the auth service of the Supabase project at baseURL.
func NewGoTrueProvider(baseURL, anonKey string, httpClient *http.Client) *GoTrueProvider {
	c := gotrue.New("", anonKey).WithCustomGoTrueURL(strings.TrimRight(baseURL, "/") + "/auth/v1")
	if httpClient != nil {
		c = c.WithClient(*httpClient)
	}
	return &GoTrueProvider{client: c}
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	res, err := call(ctx, func() (*types.SignupResponse, error) {
		return p.client.Signup(types.SignupRequest{Email: email, Password: password})
	})
	if err != nil {
		return nil, err
	}

	out := &SignUpResult{Identities: len(res.User.Identities)}
	if res.User.ID != uuid.Nil {
		out.User = toUser(res.User)
	}
	if res.Session.AccessToken != "" {
		out.Session = toSession(res.Session)
	}
	return out, nil
}

func (p *GoTrueProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	res, err := call(ctx, func() (*types.TokenResponse, error) {
		return p.client.SignInWithEmailPassword(email, password)
	})
	if err != nil {
		return nil, err
	}
	return toSession(res.Session), nil
}

func (p *GoTrueProvider) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	res, err := call(ctx, func() (*types.TokenResponse, error) {
		return p.client.RefreshToken(refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return toSession(res.Session), nil
}

func (p *GoTrueProvider) User(ctx context.Context, accessToken string) (*models.User, error) {
	res, err := call(ctx, func() (*types.UserResponse, error) {
		return p.client.WithToken(accessToken).GetUser()
	})
	if err != nil {
		return nil, err
	}
	return toUser(res.User), nil
}

func (p *GoTrueProvider) ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error) {
	res, err := call(ctx, func() (*types.TokenResponse, error) {
		return p.client.Token(types.TokenRequest{GrantType: "pkce", Code: code, CodeVerifier: verifier})
	})
	if err != nil {
		return nil, err
	}
	return toSession(res.Session), nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	_, err := call(ctx, func() (struct{}, error) {
		return struct{}{}, p.client.WithToken(accessToken).Logout()
	})
	return err
}

// call runs fn and waits for it or for ctx, whichever finishes first.
// Network failures become typed transport errors so they translate to the connection message.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, shared.NewError(shared.ErrTransport, shared.MsgNetwork, ctx.Err())
	case r := <-done:
		if r.err != nil && isNetworkError(r.err) {
			return r.v, shared.NewError(shared.ErrTransport, shared.MsgNetwork, r.err)
		}
		return r.v, r.err
	}
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

func toUser(u types.User) *models.User {
	return &models.User{ID: u.ID.String(), Email: u.Email}
}

func toSession(s types.Session) *models.Session {
	out := &models.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         *toUser(s.User),
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out
}
