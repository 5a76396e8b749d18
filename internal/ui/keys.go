package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the monitor. It satisfies help.KeyMap.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding

	// Input
	Focus  key.Binding
	Submit key.Binding
	Blur   key.Binding

	// Remote control
	Pause  key.Binding
	Resume key.Binding
	Skip   key.Binding
	Clear  key.Binding

	// Talk settings
	NextVoice  key.Binding
	PrevVoice  key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Cycle theme"),
		),

		Focus: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Type a line"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Speak"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Leave input"),
		),

		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pause"),
		),
		Resume: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Resume"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Skip"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear"),
		),

		NextVoice: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Next voice"),
		),
		PrevVoice: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "Previous voice"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Louder"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Quieter"),
		),
	}
}

// ShortHelp returns the bindings shown in the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Pause, k.Resume, k.Skip, k.Clear, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, one column per group.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Submit, k.Blur},
		{k.Pause, k.Resume, k.Skip, k.Clear},
		{k.NextVoice, k.PrevVoice, k.VolumeUp, k.VolumeDown},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
