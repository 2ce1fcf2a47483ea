package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelf/internal/server"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/urfave/cli/v3"
)

// authStatus is the JSON shape of `auth status`.
type authStatus struct {
	Connected bool   `json:"connected"`
	SignedIn  bool   `json:"signed_in"`
	Email     string `json:"email,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Backend   string `json:"backend"`
}

// AuthSignUp registers a new account.
//
// When the identity service requires email confirmation no session is stored and the user is told to check their inbox.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	email, password := cmd.String("email"), cmd.String("password")

	r.logger.Debug("signing up", "email", email)
	if err := r.auth.SignUp(ctx, email, password); err != nil {
		return err
	}

	if s := r.auth.CurrentSession(); s != nil {
		return r.writePlain("✓ Signed up and signed in as %s\n", s.User.Email)
	}
	return r.writePlain("✓ %s\n", shared.Message(shared.MsgSignUpSuccess))
}

// AuthLogin signs in with email and password and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email, password := cmd.String("email"), cmd.String("password")

	r.logger.Debug("signing in", "email", email)
	if err := r.auth.SignIn(ctx, email, password); err != nil {
		return err
	}

	s := r.auth.CurrentSession()
	if s == nil {
		return shared.NewError(shared.ErrAuth, shared.MsgSignInFailed, nil)
	}
	return r.writePlain("✓ Signed in as %s\n", s.User.Email)
}

// AuthOAuth signs in through the browser.
//
// Starts the local callback server, opens the provider's authorization page and exchanges the returned code.
func (r *Runner) AuthOAuth(ctx context.Context, cmd *cli.Command) error {
	provider := cmd.String("provider")
	if provider == "" {
		provider = r.config.Supabase.OAuthProvider
	}

	opts := server.FlowOpts{
		Provider:    provider,
		Addr:        fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port),
		RedirectURL: r.config.CallbackURL(),
		Timeout:     cmd.Duration("timeout"),
		Logger:      r.logger,
		OnURL: func(url string) {
			r.writePlain("Opening browser for %s sign in...\n", provider)
			r.writePlain("If it does not open, visit:\n%s\n\n", url)
		},
	}
	if !cmd.Bool("no-browser") {
		opts.Open = r.openURL
	}

	r.logger.Debug("starting oauth flow", "provider", provider, "redirect", opts.RedirectURL)
	if err := server.RunOAuthFlow(ctx, r.auth, opts); err != nil {
		return err
	}

	s := r.auth.CurrentSession()
	if s == nil {
		return shared.NewError(shared.ErrAuth, shared.MsgSignInFailed, nil)
	}
	return r.writePlain("✓ Signed in as %s\n", s.User.Email)
}

// AuthLogout revokes the session and removes the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.auth.SignOut(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports whether the backend is configured and who is signed in.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := authStatus{Connected: r.auth.Connected(), Backend: r.config.Store.Backend}

	if status.Connected {
		if err := r.auth.Reload(ctx); err != nil {
			r.logger.Debug("no stored session", "error", err)
		}
		if s := r.auth.CurrentSession(); s != nil {
			status.SignedIn = true
			status.Email = s.User.Email
			status.UserID = s.User.ID
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Account")
	if !status.Connected {
		r.writePlain("Connection: ✗ %s\n", shared.Message(shared.MsgNotConnected))
		return nil
	}
	r.writePlain("Connection: ✓ %s\n", r.config.Supabase.URL)
	r.writePlain("Store: %s\n", status.Backend)
	if status.SignedIn {
		r.writePlain("Signed in: ✓ %s\n", status.Email)
	} else {
		r.writePlain("Signed in: ✗ run 'shelf auth login' or 'shelf auth oauth'\n")
	}
	return nil
}
