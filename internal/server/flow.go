package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/services"
)

const defaultFlowTimeout = 5 * time.Minute

// FlowOpts configures one browser-based OAuth sign-in.
type FlowOpts struct {
	Provider    string             // Identity provider name, e.g. "google"
	Addr        string             // Address the callback server binds
	RedirectURL string             // Callback URL registered with the identity service
	Timeout     time.Duration      // How long to wait for the browser; defaults to five minutes
	Open        func(string) error // Opens the authorization URL; failures are logged, not returned
	OnURL       func(string)       // Called with the authorization URL before waiting, if set
	Logger      *log.Logger
}

// RunOAuthFlow builds the PKCE request, serves the callback and blocks until the code is exchanged.
//
// The server is shut down before returning.
func RunOAuthFlow(ctx context.Context, auth services.Authenticator, opts FlowOpts) error {
	req, err := auth.SignInWithOAuth(ctx, opts.Provider, opts.RedirectURL)
	if err != nil {
		return err
	}

	handler := NewOAuthHandler(req.State, func(ctx context.Context, code string) error {
		return auth.CompleteOAuth(ctx, req, code)
	})

	srv, err := StartCallbackServer(opts.Addr, handler, opts.Logger)
	if err != nil {
		return err
	}
	defer srv.Shutdown()

	if opts.OnURL != nil {
		opts.OnURL(req.URL)
	}
	if opts.Open != nil {
		if err := opts.Open(req.URL); err != nil && opts.Logger != nil {
			opts.Logger.Warn("could not open browser", "error", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFlowTimeout
	}
	return srv.Wait(ctx, timeout)
}
