package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	record    key.Binding
	stop      key.Binding
	delete    key.Binding
	reload    key.Binding
	back      key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "recommend")),
		record:    key.NewBinding(key.WithKeys("s", " "), key.WithHelp("s", "record")),
		stop:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "stop & analyze")),
		delete:    key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.record, k.delete, k.reload},
		{k.back, k.quit},
	}
}
