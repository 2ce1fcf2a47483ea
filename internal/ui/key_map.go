package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up          key.Binding
	down        key.Binding
	search      key.Binding
	submit      key.Binding
	back        key.Binding
	file        key.Binding
	nextTab     key.Binding
	prevTab     key.Binding
	collections key.Binding
	results     key.Binding
	auth        key.Binding
	toggle      key.Binding
	oauth       key.Binding
	focus       key.Binding
	dismiss     key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		file:        key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1/2/3", "file book")),
		nextTab:     key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab/→", "next list")),
		prevTab:     key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab/←", "prev list")),
		collections: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "my lists")),
		results:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search results")),
		auth:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "sign in/out")),
		toggle:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "sign in/sign up")),
		oauth:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "browser sign in")),
		focus:       key.NewBinding(key.WithKeys("tab", "shift+tab", "up", "down"), key.WithHelp("tab", "next field")),
		dismiss:     key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.search, k.submit},
		{k.file, k.nextTab, k.prevTab},
		{k.collections, k.results, k.auth, k.quit},
	}
}
