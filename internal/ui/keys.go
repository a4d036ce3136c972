package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	TabQueue   key.Binding
	TabHistory key.Binding
	TabLog     key.Binding
	TabHelp    key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Playback
	VolumeUp   key.Binding
	VolumeDown key.Binding
	PlayPause  key.Binding
	Skip       key.Binding
	Stop       key.Binding

	// Queue
	Remove  key.Binding
	Clear   key.Binding
	Select  key.Binding
	Add     key.Binding
	AddRaw  key.Binding
	NewerPg key.Binding
	OlderPg key.Binding

	// Prompt
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?", "f1"),
			key.WithHelp("h/?", "Help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "Next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "Previous tab"),
		),
		TabQueue: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Queue"),
		),
		TabHistory: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "History"),
		),
		TabLog: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Log"),
		),
		TabHelp: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Help"),
		),

		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "Move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Up 10"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Down 10"),
		),

		VolumeUp: key.NewBinding(
			key.WithKeys("+", "k"),
			key.WithHelp("+/k", "Volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "j"),
			key.WithHelp("-/j", "Volume down"),
		),
		PlayPause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "Play/pause"),
		),
		Skip: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Skip"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Stop"),
		),

		Remove: key.NewBinding(
			key.WithKeys("delete", "r"),
			key.WithHelp("del/r", "Remove selected"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Clear queue"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Promote / re-queue"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add entry"),
		),
		AddRaw: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "Add raw stream"),
		),
		NewerPg: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Newer history"),
		),
		OlderPg: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Older history"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Skip, k.Add, k.VolumeUp, k.VolumeDown, k.Help, k.Quit}
}

// FullHelp returns key bindings for the Help tab.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TabQueue, k.TabHistory, k.TabLog, k.TabHelp, k.PrevTab, k.NextTab},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.PlayPause, k.Skip, k.Stop, k.VolumeUp, k.VolumeDown},
		{k.Select, k.Remove, k.Clear, k.Add, k.AddRaw, k.NewerPg, k.OlderPg},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
