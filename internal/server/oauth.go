package server

import (
	"context"
	"html/template"
	"net/http"
	"sync/atomic"

	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
)

// Exchanger completes a PKCE authorization with the code delivered to the callback.
type Exchanger func(ctx context.Context, code string) error

// OAuthHandler serves the redirect back from the identity service's authorize endpoint.
//
// It accepts a single callback; any later request is rejected so a replayed code is never exchanged.
type OAuthHandler struct {
	state    string
	exchange Exchanger
	done     chan error
	handled  atomic.Bool
}

// NewOAuthHandler creates a handler expecting state and completing the flow with exchange.
func NewOAuthHandler(state string, exchange Exchanger) *OAuthHandler {
	return &OAuthHandler{state: state, exchange: exchange, done: make(chan error, 1)}
}

func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	status, err := h.complete(r)
	h.done <- err
	close(h.done)
	renderResult(w, status, err)
}

func (h *OAuthHandler) complete(r *http.Request) (int, error) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return http.StatusBadRequest, shared.NewError(shared.ErrAuth, shared.MsgOAuthStateMismatch, nil)
	}

	code := q.Get("code")
	if code == "" {
		return http.StatusBadRequest, services.OAuthError(q.Get("error_description"))
	}
	if err := h.exchange(r.Context(), code); err != nil {
		return http.StatusBadGateway, err
	}
	return http.StatusOK, nil
}

// Result yields the outcome of the callback once, then closes. A nil error means signed in.
func (h *OAuthHandler) Result() <-chan error {
	return h.done
}

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func renderResult(w http.ResponseWriter, status int, err error) {
	data := struct {
		Title, Message string
		Color          template.CSS
	}{
		Title:   "✓ Signed in",
		Message: "You can close this window and return to the terminal.",
		Color:   "#2E7D32",
	}
	if err != nil {
		data.Title = "✗ Sign in failed"
		data.Message = shared.UserMessage(err)
		data.Color = "#C62828"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	resultPage.Execute(w, data)
}
