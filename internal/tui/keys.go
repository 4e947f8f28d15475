package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the dashboard key bindings. The login screen only honors
// Submit and ForceQuit; everything else is typed into the token input.
type KeyMap struct {
	Dashboard   key.Binding
	Transcripts key.Binding
	Live        key.Binding
	Settings    key.Binding

	Up   key.Binding
	Down key.Binding
	Open key.Binding // transcript detail
	Back key.Binding

	Export  key.Binding
	Refresh key.Binding
	Toggle  key.Binding // start/stop live monitoring

	Submit    key.Binding
	Logout    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap is the built-in binding set
var DefaultKeyMap = KeyMap{
	Dashboard: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "dashboard"),
	),
	Transcripts: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "transcripts"),
	),
	Live: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "live"),
	),
	Settings: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "settings"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export csv"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("s", " "),
		key.WithHelp("s", "start/stop"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "sign in"),
	),
	Logout: key.NewBinding(
		key.WithKeys("L"),
		key.WithHelp("L", "logout"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}
