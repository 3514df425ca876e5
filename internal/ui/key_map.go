package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	favorite key.Binding
	switchTo key.Binding
	retry    key.Binding
	discard  key.Binding
	refresh  key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		switchTo: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		discard:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discard")),
		refresh:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.favorite},
		{k.switchTo, k.retry, k.discard},
		{k.refresh, k.quit},
	}
}
