package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// fakeIdentity records calls and returns canned results.
type fakeIdentity struct {
	mu    sync.Mutex
	calls []string

	signUp     *SignUpResult
	signUpErr  error
	signIn     *models.Session
	signInErr  error
	user       *models.User
	userErr    error
	refreshed  *models.Session
	refreshErr error
	exchanged  *models.Session
	signOutErr error

	verifier string
}

func (f *fakeIdentity) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeIdentity) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	f.record("signup")
	return f.signUp, f.signUpErr
}

func (f *fakeIdentity) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	f.record("signin")
	return f.signIn, f.signInErr
}

func (f *fakeIdentity) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	f.record("refresh")
	return f.refreshed, f.refreshErr
}

func (f *fakeIdentity) User(ctx context.Context, accessToken string) (*models.User, error) {
	f.record("user")
	return f.user, f.userErr
}

func (f *fakeIdentity) ExchangeCode(ctx context.Context, code, verifier string) (*models.Session, error) {
	f.record("exchange")
	f.verifier = verifier
	return f.exchanged, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context, accessToken string) error {
	f.record("signout")
	return f.signOutErr
}

func session(id string, expires time.Time) *models.Session {
	return &models.Session{
		AccessToken:  "at-" + id,
		RefreshToken: "rt-" + id,
		ExpiresAt:    expires,
		User:         models.User{ID: id, Email: id + "@example.com"},
	}
}

func newGateway(p IdentityProvider) (*AuthGateway, *MemorySessionStore) {
	store := &MemorySessionStore{}
	g := NewAuthGateway(AuthOptions{
		Provider:     p,
		Store:        store,
		AuthorizeURL: AuthorizeURL("https://abc.supabase.co"),
	})
	return g, store
}

func TestAuthGateway(t *testing.T) {
	ctx := context.Background()
	later := time.Now().Add(time.Hour)

	t.Run("SignUp Validation Makes No Call", func(t *testing.T) {
		tc := []struct {
			name     string
			email    string
			password string
			msg      shared.MessageID
		}{
			{"empty email", "", "secret1", shared.MsgMissingFields},
			{"empty password", "a@b.co", "", shared.MsgMissingFields},
			{"short password", "a@b.co", "12345", shared.MsgPasswordTooShort},
			{"no at sign", "ab.co", "secret1", shared.MsgInvalidEmail},
			{"no tld", "a@b", "secret1", shared.MsgInvalidEmail},
			{"whitespace", "a b@c.de", "secret1", shared.MsgInvalidEmail},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				p := &fakeIdentity{}
				g, _ := newGateway(p)

				err := g.SignUp(ctx, tt.email, tt.password)
				if !errors.Is(err, shared.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if shared.UserMessage(err) != shared.Message(tt.msg) {
					t.Errorf("expected %q, got %q", shared.Message(tt.msg), shared.UserMessage(err))
				}
				if len(p.Calls()) != 0 {
					t.Errorf("expected zero remote calls, got %v", p.Calls())
				}
			})
		}
	})

	t.Run("SignUp Zero Identities Is Duplicate", func(t *testing.T) {
		p := &fakeIdentity{signUp: &SignUpResult{User: &models.User{ID: "u1"}, Identities: 0}}
		g, _ := newGateway(p)

		if err := g.SignUp(ctx, "a@b.co", "secret1"); !errors.Is(err, shared.ErrDuplicateAccount) {
			t.Errorf("expected duplicate account, got %v", err)
		}
	})

	t.Run("SignUp Without User", func(t *testing.T) {
		p := &fakeIdentity{signUp: &SignUpResult{}}
		g, _ := newGateway(p)

		err := g.SignUp(ctx, "a@b.co", "secret1")
		if !errors.Is(err, shared.ErrAuth) || shared.UserMessage(err) != shared.Message(shared.MsgSignUpFailed) {
			t.Errorf("expected sign up failed auth error, got %v", err)
		}
	})

	t.Run("SignUp Success Pending Confirmation", func(t *testing.T) {
		p := &fakeIdentity{signUp: &SignUpResult{User: &models.User{ID: "u1"}, Identities: 1}}
		g, _ := newGateway(p)

		if err := g.SignUp(ctx, "a@b.co", "secret1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.CurrentSession() != nil {
			t.Error("unconfirmed sign up should not produce a session")
		}
	})

	t.Run("SignUp Remote Error Translated", func(t *testing.T) {
		p := &fakeIdentity{signUpErr: errors.New(`response status code 422: {"msg":"User already registered"}`)}
		g, _ := newGateway(p)

		if err := g.SignUp(ctx, "a@b.co", "secret1"); !errors.Is(err, shared.ErrDuplicateAccount) {
			t.Errorf("expected duplicate account, got %v", err)
		}
	})

	t.Run("SignIn Reloads Instead Of Returning Session", func(t *testing.T) {
		p := &fakeIdentity{
			signIn: session("u1", later),
			user:   &models.User{ID: "u1", Email: "fresh@example.com"},
		}
		g, store := newGateway(p)

		var seen []*models.Session
		release := g.Subscribe(func(s *models.Session) { seen = append(seen, s) })
		defer release()

		if err := g.SignIn(ctx, "u1@example.com", "secret1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cur := g.CurrentSession()
		if cur == nil || cur.User.Email != "fresh@example.com" {
			t.Fatalf("expected session re-derived from the user endpoint, got %+v", cur)
		}
		if stored, _ := store.Load(); stored == nil || stored.AccessToken != "at-u1" {
			t.Errorf("expected tokens to be persisted, got %+v", stored)
		}
		if got := p.Calls(); strings.Join(got, ",") != "signin,user" {
			t.Errorf("unexpected call sequence %v", got)
		}
		if len(seen) != 2 || seen[0] != nil || seen[1] == nil {
			t.Errorf("expected nil then session delivered to subscriber, got %v", seen)
		}
	})

	t.Run("SignIn Error Translated", func(t *testing.T) {
		p := &fakeIdentity{signInErr: errors.New(`response status code 400: {"error_description":"Invalid login credentials"}`)}
		g, _ := newGateway(p)

		err := g.SignIn(ctx, "a@b.co", "wrong")
		if shared.UserMessage(err) != shared.Message(shared.MsgInvalidCredentials) {
			t.Errorf("unexpected message %q", shared.UserMessage(err))
		}
		if g.CurrentSession() != nil {
			t.Error("expected no session")
		}
	})

	t.Run("Reload Refreshes Expired Tokens", func(t *testing.T) {
		p := &fakeIdentity{refreshed: session("u1", later)}
		g, store := newGateway(p)
		store.Save(session("u1", time.Now().Add(-time.Minute)))

		if err := g.Reload(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := p.Calls(); strings.Join(got, ",") != "refresh" {
			t.Errorf("expected only a refresh, got %v", got)
		}
		if g.CurrentSession() == nil {
			t.Error("expected refreshed session to be published")
		}
	})

	t.Run("Reload Clears Rejected Tokens", func(t *testing.T) {
		p := &fakeIdentity{
			userErr:    errors.New("response status code 401: JWT expired"),
			refreshErr: errors.New("response status code 400: Invalid Refresh Token"),
		}
		g, store := newGateway(p)
		store.Save(session("u1", later))

		if err := g.Reload(ctx); !errors.Is(err, shared.ErrAuth) {
			t.Errorf("expected auth error, got %v", err)
		}
		if stored, _ := store.Load(); stored != nil {
			t.Error("expected stored tokens to be cleared")
		}
		if g.CurrentSession() != nil {
			t.Error("expected no session")
		}
	})

	t.Run("Reload Keeps Tokens On Network Failure", func(t *testing.T) {
		p := &fakeIdentity{userErr: shared.NewError(shared.ErrTransport, shared.MsgNetwork, errors.New("dial tcp"))}
		g, store := newGateway(p)
		store.Save(session("u1", later))

		if err := g.Reload(ctx); !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected transport error, got %v", err)
		}
		if stored, _ := store.Load(); stored == nil {
			t.Error("tokens should survive a network failure")
		}
	})

	t.Run("Reload Without Tokens", func(t *testing.T) {
		p := &fakeIdentity{}
		g, _ := newGateway(p)

		if err := g.Reload(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(p.Calls()) != 0 {
			t.Errorf("expected no remote calls, got %v", p.Calls())
		}
	})

	t.Run("SignOut", func(t *testing.T) {
		p := &fakeIdentity{signIn: session("u1", later), user: &models.User{ID: "u1"}, signOutErr: errors.New("offline")}
		g, store := newGateway(p)

		if err := g.SignIn(ctx, "u1@example.com", "secret1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := g.SignOut(ctx); err != nil {
			t.Fatalf("remote revoke failure should not fail sign out: %v", err)
		}
		if g.CurrentSession() != nil {
			t.Error("expected no session after sign out")
		}
		if stored, _ := store.Load(); stored != nil {
			t.Error("expected stored tokens to be cleared")
		}
	})

	t.Run("OAuth", func(t *testing.T) {
		p := &fakeIdentity{exchanged: session("u2", later), user: &models.User{ID: "u2", Email: "g@example.com"}}
		g, _ := newGateway(p)

		req, err := g.SignInWithOAuth(ctx, "google", "http://localhost:3000/callback")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		u, err := url.Parse(req.URL)
		if err != nil {
			t.Fatalf("invalid authorize url: %v", err)
		}
		if u.Host != "abc.supabase.co" || u.Path != "/auth/v1/authorize" {
			t.Errorf("unexpected authorize endpoint %s", req.URL)
		}
		q := u.Query()
		if q.Get("provider") != "google" {
			t.Errorf("expected provider google, got %q", q.Get("provider"))
		}
		if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
			t.Errorf("expected S256 challenge, got %v", q)
		}
		if q.Get("code_challenge") == req.Verifier {
			t.Error("challenge must not be the raw verifier")
		}
		redirect, err := url.Parse(q.Get("redirect_to"))
		if err != nil || redirect.Query().Get("state") != req.State {
			t.Errorf("expected redirect_to to carry the state, got %q", q.Get("redirect_to"))
		}

		if err := g.CompleteOAuth(ctx, req, "auth-code"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.verifier != req.Verifier {
			t.Error("expected the request verifier to be used for the exchange")
		}
		if cur := g.CurrentSession(); cur == nil || cur.User.ID != "u2" {
			t.Errorf("expected oauth session, got %+v", cur)
		}
	})

	t.Run("OAuth Missing Code", func(t *testing.T) {
		g, _ := newGateway(&fakeIdentity{})
		if err := g.CompleteOAuth(ctx, &OAuthRequest{}, ""); !errors.Is(err, shared.ErrAuth) {
			t.Errorf("expected auth error, got %v", err)
		}
	})

	t.Run("OAuthError Provider Disabled", func(t *testing.T) {
		err := OAuthError("Unsupported provider: provider is not enabled")
		if shared.UserMessage(err) != shared.Message(shared.MsgProviderDisabled) {
			t.Errorf("unexpected message %q", shared.UserMessage(err))
		}
	})

	t.Run("Not Connected", func(t *testing.T) {
		g := NewAuthGateway(AuthOptions{})

		if g.Connected() {
			t.Fatal("expected gateway without provider to be disconnected")
		}
		if g.CurrentSession() != nil {
			t.Error("expected nil session")
		}
		if err := g.SignIn(ctx, "a@b.co", "secret1"); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("SignIn: expected not connected, got %v", err)
		}
		if err := g.SignUp(ctx, "a@b.co", "secret1"); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("SignUp: expected not connected, got %v", err)
		}
		if _, err := g.SignInWithOAuth(ctx, "google", "http://localhost"); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("SignInWithOAuth: expected not connected, got %v", err)
		}
		if err := g.SignOut(ctx); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("SignOut: expected not connected, got %v", err)
		}
	})
}
