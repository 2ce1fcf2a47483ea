package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// authForm is the email and password form shown over the current view.
type authForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	signUp   bool
	busy     bool
	err      string
}

func newAuthForm() authForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "at least 6 characters"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	f := authForm{email: email, password: password}
	f.email.Focus()
	return f
}

// open resets the form for a fresh attempt, keeping the typed email.
func (f *authForm) open() tea.Cmd {
	f.password.SetValue("")
	f.err = ""
	f.busy = false
	f.focus = 0
	f.password.Blur()
	return f.email.Focus()
}

func (f *authForm) values() (string, string) {
	return strings.TrimSpace(f.email.Value()), f.password.Value()
}

func (f *authForm) toggle() {
	f.signUp = !f.signUp
	f.err = ""
}

func (f *authForm) cycle() tea.Cmd {
	f.focus = (f.focus + 1) % 2
	if f.focus == 0 {
		f.password.Blur()
		return f.email.Focus()
	}
	f.email.Blur()
	return f.password.Focus()
}

func (f *authForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f authForm) title() string {
	if f.signUp {
		return "Create account"
	}
	return "Sign in"
}

func (m *Model) renderAuthForm() string {
	f := m.form
	var b strings.Builder
	b.WriteString(styles.title.Render(f.title()))
	b.WriteString("\n\n")
	b.WriteString(f.email.View())
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")

	switch {
	case f.busy:
		b.WriteString(m.spinner.View() + " Working...")
	case f.err != "":
		b.WriteString(styles.err.Render(f.err))
	}
	b.WriteString("\n\n")

	helpKeys := []key.Binding{m.keys.submit, m.keys.focus, m.keys.toggle, m.keys.oauth, m.keys.back}
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}
