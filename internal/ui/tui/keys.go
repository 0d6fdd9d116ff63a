// Package tui is the terminal presentation of a persona chat session.
package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings of both screens.
type KeyMap struct {
	Select key.Binding
	Send   key.Binding
	Speak  key.Binding
	Older  key.Binding
	Newer  key.Binding
	Back   key.Binding
	Quit   key.Binding
	CtrlC  key.Binding
}

// DefaultKeyMap is the binding set used by New.
var DefaultKeyMap = KeyMap{
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "chat"),
	),
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Speak: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "speak reply"),
	),
	Older: key.NewBinding(
		key.WithKeys("ctrl+p", "alt+up"),
		key.WithHelp("ctrl+p", "pick older reply"),
	),
	Newer: key.NewBinding(
		key.WithKeys("ctrl+n", "alt+down"),
		key.WithHelp("ctrl+n", "pick newer reply"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "exit"),
	),
}
