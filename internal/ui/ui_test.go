package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	tu "github.com/desertthunder/shelf/internal/testing"
)

// fakeAuth is an in-memory [services.Authenticator] backed by a real session hub.
type fakeAuth struct {
	connected bool
	hub       *services.SessionHub
	signInErr error
	signUps   int
	signOuts  int
}

func newFakeAuth(connected bool) *fakeAuth {
	return &fakeAuth{connected: connected, hub: services.NewSessionHub()}
}

func (f *fakeAuth) Connected() bool                 { return f.connected }
func (f *fakeAuth) CurrentSession() *models.Session { return f.hub.Current() }
func (f *fakeAuth) Subscribe(fn func(*models.Session)) func() {
	return f.hub.Subscribe(fn)
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) error {
	if err := services.ValidateSignUp(email, password); err != nil {
		return err
	}
	f.signUps++
	return nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	f.hub.Publish(tu.NewSession(strings.Split(email, "@")[0]))
	return nil
}

func (f *fakeAuth) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (*services.OAuthRequest, error) {
	return nil, shared.ErrNotImplemented
}

func (f *fakeAuth) CompleteOAuth(ctx context.Context, req *services.OAuthRequest, code string) error {
	return shared.ErrNotImplemented
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.signOuts++
	f.hub.Publish(nil)
	return nil
}

func (f *fakeAuth) Reload(ctx context.Context) error { return nil }

type fixture struct {
	model   *Model
	auth    *fakeAuth
	backend *tu.FakeEntryStore
	catalog *tu.FakeCatalog
}

func newFixture(t *testing.T, connected bool, rows ...models.CollectionEntry) *fixture {
	t.Helper()

	auth := newFakeAuth(connected)
	catalog := &tu.FakeCatalog{Books: map[string]models.Book{}}
	backend := &tu.FakeEntryStore{}
	backend.Seed(rows...)

	var store *services.CollectionStore
	if connected {
		store = services.NewCollectionStore(backend, "", nil)
	} else {
		store = services.NewCollectionStore(nil, "", nil)
	}

	m := NewModel(context.Background(), Options{
		Catalog:      catalog,
		Auth:         auth,
		Collections:  store,
		Engine:       tasks.NewCollectionEngine(catalog, store, nil),
		DefaultQuery: "harry potter",
	})
	t.Cleanup(m.Close)
	return &fixture{model: m, auth: auth, backend: backend, catalog: catalog}
}

// signIn publishes a session and applies it the way the update loop would.
func (f *fixture) signIn(userID string) {
	f.auth.hub.Publish(tu.NewSession(userID))
	f.model.Update(sessionChangedMsg(f.auth.hub.Current()))
}

// exec runs cmd and any batched commands in order, returning the messages they produce.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// feed runs cmd and sends every resulting message back through Update.
func (f *fixture) feed(cmd tea.Cmd) {
	for _, msg := range exec(cmd) {
		if m, ok := msg.(Msg); ok {
			f.model.Update(m)
		}
	}
}

func (f *fixture) press(k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+t":
		msg = tea.KeyMsg{Type: tea.KeyCtrlT}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := f.model.Update(msg)
	return cmd
}

func books(ids ...string) []models.Book {
	out := make([]models.Book, len(ids))
	for i, id := range ids {
		out[i] = models.Book{ID: id, Title: "Title " + id, Authors: []string{"Author " + id}}
	}
	return out
}

func TestHeader(t *testing.T) {
	t.Run("Not Connected", func(t *testing.T) {
		f := newFixture(t, false)
		if !strings.Contains(f.model.View(), "not connected") {
			t.Errorf("expected not connected indicator, got:\n%s", f.model.View())
		}
	})

	t.Run("Signed Out", func(t *testing.T) {
		f := newFixture(t, true)
		if !strings.Contains(f.model.View(), "press a to sign in") {
			t.Errorf("expected sign in hint, got:\n%s", f.model.View())
		}
	})

	t.Run("Signed In", func(t *testing.T) {
		f := newFixture(t, true)
		f.signIn("alice")
		if !strings.Contains(f.model.View(), "alice@example.com") {
			t.Errorf("expected signed in email, got:\n%s", f.model.View())
		}
	})
}

func TestSearch(t *testing.T) {
	t.Run("Default Query", func(t *testing.T) {
		f := newFixture(t, false)
		f.catalog.Results = books("b1")

		f.feed(f.model.search(f.model.defaultQuery))

		if f.catalog.Searches.Load() != 1 {
			t.Errorf("expected one search, got %d", f.catalog.Searches.Load())
		}
		if !strings.Contains(f.model.results.Title, "harry potter") {
			t.Errorf("unexpected title %q", f.model.results.Title)
		}
		if len(f.model.results.Items()) != 1 {
			t.Errorf("expected 1 result, got %d", len(f.model.results.Items()))
		}
	})

	t.Run("Stale Results Are Discarded", func(t *testing.T) {
		f := newFixture(t, false)
		f.model.search("first")
		f.model.search("second")

		f.model.Update(searchDoneMsg(2, "second", books("b2"), nil))
		f.model.Update(searchDoneMsg(1, "first", books("b1", "b3"), nil))

		items := f.model.results.Items()
		if len(items) != 1 || items[0].(bookItem).book.ID != "b2" {
			t.Errorf("expected latest results to win, got %v", items)
		}
		if f.model.searching {
			t.Error("expected search to be finished")
		}
	})

	t.Run("Stale Error Is Discarded", func(t *testing.T) {
		f := newFixture(t, false)
		f.model.search("first")
		f.model.search("second")
		f.model.Update(searchDoneMsg(2, "second", books("b2"), nil))
		f.model.Update(searchDoneMsg(1, "first", nil, errors.New("boom")))

		if f.model.searchErr != "" {
			t.Errorf("unexpected error %q", f.model.searchErr)
		}
	})

	t.Run("Error Is Shown", func(t *testing.T) {
		f := newFixture(t, false)
		f.catalog.SearchErr = shared.Validation(shared.MsgEmptyQuery)
		f.feed(f.model.search(""))

		if !strings.Contains(f.model.View(), shared.Message(shared.MsgEmptyQuery)) {
			t.Errorf("expected error in view, got:\n%s", f.model.View())
		}
	})

	t.Run("Input Submits", func(t *testing.T) {
		f := newFixture(t, false)
		f.catalog.Results = books("b1")

		f.press("/")
		if !f.model.input.Focused() {
			t.Fatal("expected input focus")
		}
		f.model.input.SetValue("dune")
		f.feed(f.press("enter"))

		if f.model.input.Focused() {
			t.Error("expected input to blur after submit")
		}
		if !strings.Contains(f.model.results.Title, "dune") {
			t.Errorf("unexpected title %q", f.model.results.Title)
		}
	})
}

func TestFileBook(t *testing.T) {
	withResults := func(f *fixture) {
		f.model.Update(searchDoneMsg(f.model.searchSeq, "q", books("b1", "b2"), nil))
	}

	t.Run("Not Connected", func(t *testing.T) {
		f := newFixture(t, false)
		withResults(f)

		if cmd := f.press("1"); cmd != nil {
			t.Error("expected no command")
		}
		if f.model.notice != shared.Message(shared.MsgNotConnected) {
			t.Errorf("expected not connected notice, got %q", f.model.notice)
		}
		if f.model.formOpen {
			t.Error("auth form must not open without a backend")
		}
	})

	t.Run("Signed Out Opens Auth Form", func(t *testing.T) {
		f := newFixture(t, true)
		withResults(f)

		if cmd := f.press("2"); cmd != nil {
			t.Error("expected no insert command")
		}
		if !f.model.formOpen {
			t.Error("expected auth form")
		}
		if len(f.backend.Rows()) != 0 {
			t.Error("expected no insert")
		}
	})

	t.Run("Adds Selected Book", func(t *testing.T) {
		f := newFixture(t, true)
		f.signIn("alice")
		withResults(f)

		f.feed(f.press("2"))

		rows := f.backend.Rows()
		if len(rows) != 1 || rows[0].BookID != "b1" || rows[0].ListName != models.Reading {
			t.Errorf("unexpected rows %+v", rows)
		}
		if f.model.notice != shared.Message(shared.MsgAddedToList) {
			t.Errorf("unexpected notice %q", f.model.notice)
		}
		if !f.model.stale {
			t.Error("expected collections marked stale")
		}
	})

	t.Run("Duplicate Shows Blocking Alert", func(t *testing.T) {
		f := newFixture(t, true, models.CollectionEntry{ID: "e1", UserID: "alice", BookID: "b1", ListName: models.Finished})
		f.signIn("alice")
		withResults(f)

		f.feed(f.press("1"))

		if f.model.alert != shared.Message(shared.MsgDuplicateEntry) {
			t.Fatalf("expected duplicate alert, got %q", f.model.alert)
		}
		if cmd := f.press("3"); cmd != nil || len(f.backend.Rows()) != 1 {
			t.Error("keys must be ignored while the alert is shown")
		}
		f.press("enter")
		if f.model.alert != "" {
			t.Error("expected alert dismissed")
		}
	})
}

func TestCollections(t *testing.T) {
	seed := []models.CollectionEntry{
		{ID: "e1", UserID: "alice", BookID: "b1", ListName: models.WantToRead},
		{ID: "e2", UserID: "alice", BookID: "b2", ListName: models.WantToRead},
		{ID: "e3", UserID: "alice", BookID: "b3", ListName: models.Finished},
	}
	load := func(t *testing.T) *fixture {
		f := newFixture(t, true, seed...)
		for _, b := range books("b1", "b2", "b3") {
			f.catalog.Books[b.ID] = b
		}
		f.signIn("alice")
		f.feed(f.press("c"))
		return f
	}

	t.Run("Loads Buckets", func(t *testing.T) {
		f := load(t)

		if f.model.view != CollectionsView || f.model.loading {
			t.Fatalf("expected loaded collections view")
		}
		if n := len(f.model.buckets[models.WantToRead]); n != 2 {
			t.Errorf("expected 2 want-to-read, got %d", n)
		}
		if n := len(f.model.shelf.Items()); n != 2 {
			t.Errorf("expected the first tab shown, got %d items", n)
		}
		if !strings.Contains(f.model.View(), "Finished (1)") {
			t.Errorf("expected tab counts, got:\n%s", f.model.View())
		}
	})

	t.Run("Tabs", func(t *testing.T) {
		f := load(t)

		f.press("tab")
		f.press("tab")
		if f.model.currentList() != models.Finished || len(f.model.shelf.Items()) != 1 {
			t.Errorf("expected finished tab, got %s", f.model.currentList())
		}
		f.press("tab")
		if f.model.currentList() != models.WantToRead {
			t.Errorf("expected tabs to wrap, got %s", f.model.currentList())
		}
		f.press("shift+tab")
		if f.model.currentList() != models.Finished {
			t.Errorf("expected previous tab to wrap, got %s", f.model.currentList())
		}
	})

	t.Run("Current List Is Disabled", func(t *testing.T) {
		f := load(t)
		if cmd := f.press(models.WantToRead.Key()); cmd != nil {
			t.Error("expected the current list key to be ignored")
		}
	})

	t.Run("Move Relocates Optimistically", func(t *testing.T) {
		f := load(t)
		f.feed(f.press(models.Reading.Key()))

		if f.model.alert != "" {
			t.Fatalf("unexpected alert %q", f.model.alert)
		}
		if n := len(f.model.buckets[models.WantToRead]); n != 1 {
			t.Errorf("expected one left in want-to-read, got %d", n)
		}
		if got := f.model.buckets[models.Reading]; len(got) != 1 || got[0].Entry.BookID != "b1" {
			t.Errorf("expected b1 in reading, got %+v", got)
		}
		for _, r := range f.backend.Rows() {
			if r.BookID == "b1" && r.ListName != models.Reading {
				t.Errorf("expected stored move, got %+v", r)
			}
		}
	})

	t.Run("Stale Load Is Discarded", func(t *testing.T) {
		f := load(t)
		f.model.collSeq++

		empty := &tasks.AssemblyResult{Buckets: models.NewBuckets()}
		f.model.Update(collectionsLoadedMsg(f.model.collSeq-1, empty, nil))
		if f.model.buckets.Len() != 3 {
			t.Errorf("expected stale load ignored, got %d items", f.model.buckets.Len())
		}
	})

	t.Run("Signed Out", func(t *testing.T) {
		f := newFixture(t, true)
		if cmd := f.press("c"); cmd != nil {
			t.Error("expected no load without a session")
		}
		if !strings.Contains(f.model.View(), "Sign in to see your lists") {
			t.Errorf("expected sign in hint, got:\n%s", f.model.View())
		}
	})
}

func TestAuthForm(t *testing.T) {
	t.Run("Sign In Closes Form", func(t *testing.T) {
		f := newFixture(t, true)
		f.press("a")
		if !f.model.formOpen {
			t.Fatal("expected auth form")
		}

		f.model.form.email.SetValue("bob@example.com")
		f.model.form.password.SetValue("secret1")
		f.feed(f.press("enter"))

		if f.model.formOpen {
			t.Errorf("expected form closed, error %q", f.model.form.err)
		}
		if s := f.auth.CurrentSession(); s == nil || s.User.ID != "bob" {
			t.Errorf("expected bob signed in, got %+v", s)
		}
	})

	t.Run("Error Is Inline", func(t *testing.T) {
		f := newFixture(t, true)
		f.auth.signInErr = shared.NewError(shared.ErrAuth, shared.MsgInvalidCredentials, nil)
		f.press("a")
		f.model.form.email.SetValue("bob@example.com")
		f.model.form.password.SetValue("wrong")
		f.feed(f.press("enter"))

		if !f.model.formOpen {
			t.Fatal("expected form to stay open")
		}
		if !strings.Contains(f.model.View(), shared.Message(shared.MsgInvalidCredentials)) {
			t.Errorf("expected inline error, got:\n%s", f.model.View())
		}
	})

	t.Run("Sign Up Toggle", func(t *testing.T) {
		f := newFixture(t, true)
		f.press("a")
		f.press("ctrl+t")
		if !f.model.form.signUp || !strings.Contains(f.model.View(), "Create account") {
			t.Fatal("expected sign up mode")
		}

		f.model.form.email.SetValue("new@example.com")
		f.model.form.password.SetValue("123")
		f.feed(f.press("enter"))
		if f.model.form.err != shared.Message(shared.MsgPasswordTooShort) {
			t.Errorf("expected local validation error, got %q", f.model.form.err)
		}

		f.model.form.password.SetValue("123456")
		f.feed(f.press("enter"))
		if f.model.formOpen || f.model.notice != shared.Message(shared.MsgSignUpSuccess) {
			t.Errorf("expected confirmation notice, got %q", f.model.notice)
		}
		if f.auth.signUps != 1 {
			t.Errorf("expected one sign up, got %d", f.auth.signUps)
		}
	})

	t.Run("Escape Closes", func(t *testing.T) {
		f := newFixture(t, true)
		f.press("a")
		f.press("esc")
		if f.model.formOpen {
			t.Error("expected form closed")
		}
	})

	t.Run("Sign Out", func(t *testing.T) {
		f := newFixture(t, true)
		f.signIn("alice")
		f.feed(f.press("a"))

		if f.auth.signOuts != 1 || f.auth.CurrentSession() != nil {
			t.Error("expected sign out")
		}
	})
}

func TestSessionSubscription(t *testing.T) {
	t.Run("Delivers Changes", func(t *testing.T) {
		f := newFixture(t, true)
		f.auth.hub.Publish(tu.NewSession("carol"))

		f.feed(f.model.waitForSession())
		if f.model.session == nil || f.model.session.User.ID != "carol" {
			t.Errorf("expected carol, got %+v", f.model.session)
		}
	})

	t.Run("Released On Close", func(t *testing.T) {
		f := newFixture(t, true)
		if f.auth.hub.Listeners() != 1 {
			t.Fatalf("expected one listener, got %d", f.auth.hub.Listeners())
		}
		f.model.Close()
		if f.auth.hub.Listeners() != 0 {
			t.Errorf("expected no listeners, got %d", f.auth.hub.Listeners())
		}
	})
}
