package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	prev    key.Binding
	next    key.Binding
	enter   key.Binding
	back    key.Binding
	search  key.Binding
	order   key.Binding
	refresh key.Binding
	like    key.Binding
	rate    key.Binding
	logout  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		order:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		like:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "like")),
		rate:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "rate")),
		logout:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "sign out")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prev, k.next},
		{k.enter, k.back, k.search, k.order, k.refresh},
		{k.like, k.rate, k.logout, k.quit},
	}
}
