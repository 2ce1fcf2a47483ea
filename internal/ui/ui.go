package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/server"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	CollectionsView
)

// Options holds the dependencies of a [Model].
type Options struct {
	Catalog      services.BookCatalog
	Auth         services.Authenticator
	Collections  services.Collections
	Engine       *tasks.CollectionEngine
	DefaultQuery string
	OAuth        server.FlowOpts
	Logger       *log.Logger
}

// Model represents the TUI application state.
//
// It holds transient view state only; the session is owned by the auth gateway and observed through a subscription.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalog      services.BookCatalog
	auth         services.Authenticator
	collections  services.Collections
	engine       *tasks.CollectionEngine
	oauth        server.FlowOpts
	logger       *log.Logger
	defaultQuery string

	session     *models.Session
	sessions    chan *models.Session
	unsubscribe func()
	cancelOAuth context.CancelFunc

	width  int
	height int

	input     textinput.Model
	results   list.Model
	searchSeq int
	searching bool
	searchErr string

	shelf    list.Model
	tab      int
	buckets  models.Buckets
	stale    bool
	collSeq  int
	loading  bool
	progress tasks.ProgressUpdate
	shelfErr string

	formOpen bool
	form     authForm

	alert    string
	notice   string
	quitting bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model and subscribes it to session changes.
//
// Call [Model.Close] when the program exits to release the subscription.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	input := textinput.New()
	input.Placeholder = "Search books"
	input.Prompt = "🔍 "
	input.CharLimit = 200
	input.SetValue(opts.DefaultQuery)

	m := &Model{
		ctx:          ctx,
		view:         SearchView,
		catalog:      opts.Catalog,
		auth:         opts.Auth,
		collections:  opts.Collections,
		engine:       opts.Engine,
		oauth:        opts.OAuth,
		logger:       opts.Logger,
		defaultQuery: opts.DefaultQuery,
		sessions:     make(chan *models.Session, 1),
		input:        input,
		results:      newList("Results"),
		shelf:        newList(models.Lists[0].Label()),
		form:         newAuthForm(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:         help.New(),
		keys:         newKeyMap(),
	}

	m.session = opts.Auth.CurrentSession()
	m.unsubscribe = opts.Auth.Subscribe(m.publish)
	return m
}

// publish hands the latest session to the update loop without blocking the hub.
func (m *Model) publish(s *models.Session) {
	for {
		select {
		case m.sessions <- s:
			return
		default:
			select {
			case <-m.sessions:
			default:
			}
		}
	}
}

// Close releases the session subscription and abandons any OAuth flow in progress.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.cancelOAuth != nil {
		m.cancelOAuth()
		m.cancelOAuth = nil
	}
}

// Connected reports whether both the identity service and the collection store are configured.
func (m *Model) Connected() bool {
	return m.auth.Connected() && m.collections.Connected()
}

// Init restores the stored session and loads the landing search.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.waitForSession()}
	if m.auth.Connected() {
		cmds = append(cmds, m.restoreSession())
	}
	if m.defaultQuery != "" {
		cmds = append(cmds, m.search(m.defaultQuery))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := max(msg.Height-12, 5)
		m.results.SetSize(msg.Width-4, h)
		m.shelf.SetSize(msg.Width-4, h)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.formOpen:
		cmd = m.form.update(msg)
	case m.input.Focused():
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		r := msg.data.(searchResult)
		if r.seq != m.searchSeq {
			m.logger.Debug("discarding stale search", "query", r.query)
			return m, nil
		}
		m.searching = false
		if r.err != nil {
			m.searchErr = shared.UserMessage(r.err)
			m.results.SetItems(nil)
			return m, nil
		}
		m.searchErr = ""
		m.results.Title = fmt.Sprintf("Results for %q", r.query)
		m.results.ResetSelected()
		return m, m.results.SetItems(bookItems(r.books))

	case MsgCollectionsLoaded:
		r := msg.data.(collectionsResult)
		if r.seq != m.collSeq {
			return m, nil
		}
		m.loading = false
		if r.err != nil {
			m.logger.Warn("could not load collections", "error", r.err)
			m.shelfErr = shared.UserMessage(r.err)
			return m, nil
		}
		m.shelfErr = ""
		m.buckets = r.result.Buckets
		m.stale = false
		if n := len(r.result.Failures); n > 0 {
			m.notice = fmt.Sprintf("%d books could not be loaded", n)
		}
		return m, m.refreshShelf()

	case MsgProgressUpdate:
		r := msg.data.(progressResult)
		if r.seq != m.collSeq || !m.loading {
			return m, nil
		}
		m.progress = r.update
		return m, waitForProgress(r.seq, r.progress)

	case MsgActionDone:
		return m.handleActionDone(msg.data.(actionResult))

	case MsgAuthDone:
		r := msg.data.(authResult)
		if errors.Is(r.err, context.Canceled) {
			return m, nil
		}
		if !m.formOpen {
			if r.err != nil {
				m.alert = shared.UserMessage(r.err)
			}
			return m, nil
		}
		m.form.busy = false
		m.cancelOAuth = nil
		if r.err != nil {
			m.form.err = shared.UserMessage(r.err)
			return m, nil
		}
		m.formOpen = false
		if r.signUp && m.auth.CurrentSession() == nil {
			m.notice = shared.Message(shared.MsgSignUpSuccess)
		}
		return m, nil

	case MsgSessionChanged:
		return m, tea.Batch(m.applySession(msg.data.(*models.Session)), m.waitForSession())
	}
	return m, nil
}

func (m *Model) handleActionDone(r actionResult) (tea.Model, tea.Cmd) {
	if r.err != nil {
		m.logger.Debug("collection action failed", "book", r.bookID, "to", r.to, "error", r.err)
		m.alert = shared.UserMessage(r.err)
		if errors.Is(r.err, shared.ErrStaleMove) {
			m.stale = true
		}
		return m, nil
	}

	if r.from == "" {
		m.notice = shared.Message(shared.MsgAddedToList)
		m.stale = true
		return m, nil
	}

	if m.buckets != nil {
		m.buckets = tasks.Relocate(m.buckets, r.bookID, r.from, r.to)
	}
	m.notice = shared.Message(shared.MsgMovedToList)
	return m, m.refreshShelf()
}

func (m *Model) applySession(s *models.Session) tea.Cmd {
	prev := m.session
	m.session = s
	if s == nil {
		m.buckets = nil
		m.shelf.SetItems(nil)
		return nil
	}
	if prev == nil || prev.User.ID != s.User.ID {
		m.buckets = nil
		if m.view == CollectionsView {
			return m.loadCollections()
		}
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.alert != "" {
		if key.Matches(msg, m.keys.dismiss) {
			m.alert = ""
		}
		return m, nil
	}
	m.notice = ""

	switch {
	case m.formOpen:
		return m.handleFormKeys(msg)
	case m.input.Focused():
		return m.handleInputKeys(msg)
	case m.view == CollectionsView:
		return m.handleCollectionsKeys(msg)
	default:
		return m.handleResultsKeys(msg)
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.input.Blur()
		return m, m.search(m.input.Value())
	case "esc":
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.collections):
		return m, m.showCollections()
	case key.Matches(msg, m.keys.auth):
		return m, m.toggleAuth()
	case key.Matches(msg, m.keys.file):
		l, _ := models.ListForKey(msg.String())
		return m, m.addSelected(l)
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleCollectionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.results), key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.nextTab):
		m.tab = (m.tab + 1) % len(models.Lists)
		return m, m.refreshShelf()
	case key.Matches(msg, m.keys.prevTab):
		m.tab = (m.tab + len(models.Lists) - 1) % len(models.Lists)
		return m, m.refreshShelf()
	case msg.String() == "r":
		return m, m.loadCollections()
	case key.Matches(msg, m.keys.auth):
		return m, m.toggleAuth()
	case key.Matches(msg, m.keys.file):
		l, _ := models.ListForKey(msg.String())
		return m, m.moveSelected(l)
	}

	var cmd tea.Cmd
	m.shelf, cmd = m.shelf.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		if m.cancelOAuth != nil {
			m.cancelOAuth()
			m.cancelOAuth = nil
		}
		m.formOpen = false
		return m, nil
	case m.form.busy:
		return m, nil
	case key.Matches(msg, m.keys.submit):
		return m, m.submitAuth()
	case key.Matches(msg, m.keys.toggle):
		m.form.toggle()
		return m, nil
	case key.Matches(msg, m.keys.oauth):
		return m, m.startOAuth()
	case key.Matches(msg, m.keys.focus):
		return m, m.form.cycle()
	}
	return m, m.form.update(msg)
}

// writable reports whether a collection write may be issued, opening the auth form or a notice when not.
func (m *Model) writable() bool {
	if !m.Connected() {
		m.notice = shared.Message(shared.MsgNotConnected)
		return false
	}
	if m.session == nil {
		m.formOpen = true
		m.form.open()
		return false
	}
	return true
}

func (m *Model) toggleAuth() tea.Cmd {
	if !m.auth.Connected() {
		m.notice = shared.Message(shared.MsgNotConnected)
		return nil
	}
	if m.session != nil {
		return m.signOut()
	}
	m.formOpen = true
	return m.form.open()
}

func (m *Model) showCollections() tea.Cmd {
	m.view = CollectionsView
	if m.session == nil || !m.Connected() || m.loading {
		return nil
	}
	if m.buckets == nil || m.stale {
		return m.loadCollections()
	}
	return m.refreshShelf()
}

func (m *Model) currentList() models.ListName {
	return models.Lists[m.tab]
}

func (m *Model) refreshShelf() tea.Cmd {
	l := m.currentList()
	m.shelf.Title = l.Label()
	if m.buckets == nil {
		return m.shelf.SetItems(nil)
	}
	return m.shelf.SetItems(collectionItems(m.buckets[l]))
}

func (m *Model) search(query string) tea.Cmd {
	m.searchSeq++
	seq := m.searchSeq
	m.searching = true
	m.searchErr = ""

	return func() tea.Msg {
		books, err := m.catalog.Search(m.ctx, query)
		return searchDoneMsg(seq, query, books, err)
	}
}

func (m *Model) addSelected(to models.ListName) tea.Cmd {
	item, ok := m.results.SelectedItem().(bookItem)
	if !ok || to == "" || !m.writable() {
		return nil
	}

	s, id := m.session, item.book.ID
	return func() tea.Msg {
		err := m.collections.AddToList(m.ctx, s, id, to)
		return actionDoneMsg(id, "", to, err)
	}
}

func (m *Model) moveSelected(to models.ListName) tea.Cmd {
	from := m.currentList()
	if to == "" || to == from {
		return nil
	}
	item, ok := m.shelf.SelectedItem().(collectionItem)
	if !ok || !m.writable() {
		return nil
	}

	s, id := m.session, item.item.Entry.BookID
	return func() tea.Msg {
		err := m.collections.MoveToList(m.ctx, s, id, from, to)
		return actionDoneMsg(id, from, to, err)
	}
}

func (m *Model) loadCollections() tea.Cmd {
	if m.session == nil || m.engine == nil {
		return nil
	}
	m.collSeq++
	seq := m.collSeq
	m.loading = true
	m.shelfErr = ""
	m.progress = tasks.ProgressUpdate{}

	s := m.session
	progress := make(chan tasks.ProgressUpdate, 16)
	run := func() tea.Msg {
		result, err := m.engine.Assemble(m.ctx, s, progress)
		close(progress)
		return collectionsLoadedMsg(seq, result, err)
	}
	return tea.Batch(run, waitForProgress(seq, progress))
}

func waitForProgress(seq int, progress <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(seq, update, progress)
	}
}

func (m *Model) submitAuth() tea.Cmd {
	email, password := m.form.values()
	signUp := m.form.signUp
	m.form.busy = true
	m.form.err = ""

	return func() tea.Msg {
		var err error
		if signUp {
			err = m.auth.SignUp(m.ctx, email, password)
		} else {
			err = m.auth.SignIn(m.ctx, email, password)
		}
		return authDoneMsg(signUp, err)
	}
}

func (m *Model) startOAuth() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelOAuth = cancel
	m.form.busy = true
	m.form.err = ""

	opts := m.oauth
	if opts.Logger == nil {
		opts.Logger = m.logger
	}
	return func() tea.Msg {
		err := server.RunOAuthFlow(ctx, m.auth, opts)
		return authDoneMsg(false, err)
	}
}

func (m *Model) signOut() tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg(false, m.auth.SignOut(m.ctx))
	}
}

func (m *Model) restoreSession() tea.Cmd {
	return func() tea.Msg {
		if err := m.auth.Reload(m.ctx); err != nil {
			m.logger.Warn("could not restore session", "error", err)
		}
		return nil
	}
}

func (m *Model) waitForSession() tea.Cmd {
	ch := m.sessions
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return sessionChangedMsg(s)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.alert != "" {
		b.WriteString(styles.alert.Render(m.alert))
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.dismiss}))
		b.WriteString("\n\n")
	}

	switch {
	case m.formOpen:
		b.WriteString(m.renderAuthForm())
	case m.view == CollectionsView:
		b.WriteString(m.renderCollections())
	default:
		b.WriteString(m.renderSearch())
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	title := styles.title.Render("📚 shelf")

	var status string
	switch {
	case !m.Connected():
		status = styles.warn.Render("● not connected")
	case m.session != nil:
		status = styles.ok.Render("● " + m.session.User.Email)
	default:
		status = styles.help.Render("press a to sign in")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", status)
}

// renderActions draws the list controls. The current list, and every list when writes are disabled, is dimmed.
func (m *Model) renderActions(current models.ListName) string {
	parts := make([]string, len(models.Lists))
	for i, l := range models.Lists {
		label := fmt.Sprintf("[%s] %s", l.Key(), l.Label())
		if l == current || !m.Connected() {
			parts[i] = styles.dim.Render(label)
		} else {
			parts[i] = label
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	return "\n" + styles.warn.Render(m.notice)
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.searching:
		b.WriteString(m.spinner.View() + " Searching...")
	case m.searchErr != "":
		b.WriteString(styles.err.Render(m.searchErr))
	default:
		b.WriteString(m.results.View())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderActions(""))
	b.WriteString(m.renderNotice())
	b.WriteString("\n\n")

	helpKeys := []key.Binding{m.keys.search, m.keys.file, m.keys.collections, m.keys.auth, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(models.Lists))
	for i, l := range models.Lists {
		label := l.Label()
		if m.buckets != nil {
			label = fmt.Sprintf("%s (%d)", label, len(m.buckets[l]))
		}
		if i == m.tab {
			tabs[i] = styles.activeTab.Render(label)
		} else {
			tabs[i] = styles.tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderCollections() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch {
	case !m.Connected():
		b.WriteString(styles.warn.Render(shared.Message(shared.MsgNotConnected)))
	case m.session == nil:
		b.WriteString(styles.help.Render("Sign in to see your lists (press a)."))
	case m.loading:
		msg := m.progress.Message
		if msg == "" {
			msg = "Loading..."
		}
		b.WriteString(m.spinner.View() + " " + msg)
	case m.shelfErr != "":
		b.WriteString(styles.err.Render(m.shelfErr))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("press r to retry"))
	default:
		b.WriteString(m.shelf.View())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderActions(m.currentList()))
	b.WriteString(m.renderNotice())
	b.WriteString("\n\n")

	reload := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload"))
	helpKeys := []key.Binding{m.keys.nextTab, m.keys.file, reload, m.keys.results, m.keys.quit}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}
