package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Prev      key.Binding
	Next      key.Binding
	First     key.Binding
	Last      key.Binding
	Copy      key.Binding
	Quit      key.Binding
	PreviewUp key.Binding
	PreviewDn key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
}

// help lists the bindings shown in the status bar.
func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.First, k.Last, k.PreviewDn, k.Copy, k.Quit}
}

var keys = keyMap{
	Prev: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("up", "prev chunk"),
	),
	Next: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("dn", "next chunk"),
	),
	First: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "first"),
	),
	Last: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "last"),
	),
	Copy: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy record path"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
	PreviewUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "turns up"),
	),
	PreviewDn: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-u/C-d", "scroll turns"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "turns page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdn", "turns page down"),
	),
}
