package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Slower    key.Binding
	Faster    key.Binding
	SlowerBig key.Binding
	FasterBig key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Pause     key.Binding
	Restore   key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Slower: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "slower"),
		),
		Faster: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "faster"),
		),
		SlowerBig: key.NewBinding(
			key.WithKeys("shift+right", "pgup", "L"),
			key.WithHelp("pgup", "+10"),
		),
		FasterBig: key.NewBinding(
			key.WithKeys("shift+left", "pgdown", "H"),
			key.WithHelp("pgdn", "-10"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "use default"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause"),
		),
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) pickHelp() []key.Binding {
	return []key.Binding{k.Faster, k.Slower, k.FasterBig, k.SlowerBig, k.Confirm, k.Cancel, k.Quit}
}

func (k keyMap) playHelp(paused bool) []key.Binding {
	pause := k.Pause
	if paused {
		pause.SetHelp("space", "resume")
	}
	return []key.Binding{pause, k.Restore, k.Quit}
}

func (k keyMap) doneHelp() []key.Binding {
	return []key.Binding{k.Quit}
}
