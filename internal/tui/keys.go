package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the editor.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	Edit        key.Binding
	Back        key.Binding
	AddEvent    key.Binding
	DeleteEvent key.Binding
	AddEntity   key.Binding
	AddLocation key.Binding
	Sort        key.Binding
	NextPrompt  key.Binding
	Generate    key.Binding
	Copy        key.Binding
	Save        key.Binding
	Export      key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		AddEvent: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new event"),
		),
		DeleteEvent: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete event"),
		),
		AddEntity: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "add entity"),
		),
		AddLocation: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "add location"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		NextPrompt: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prompt style"),
		),
		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save as"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.AddEvent, k.AddEntity, k.Sort, k.Generate, k.Copy, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextField, k.PrevField, k.Edit, k.Back},
		{k.AddEvent, k.DeleteEvent, k.AddEntity, k.AddLocation, k.Sort},
		{k.NextPrompt, k.Generate, k.Copy, k.Save, k.Export, k.Quit},
	}
}
