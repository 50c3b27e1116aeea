package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the viewer's key bindings. The four click modifiers
// mirror the classic mapping: plain select replaces, toggle/subtract/
// union are the ctrl/alt/shift equivalents.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Toggle    key.Binding
	Subtract  key.Binding
	Union     key.Binding
	Clear     key.Binding
	Lasso     key.Binding
	Mode      key.Binding
	ErrorBars key.Binding
	Group     key.Binding
	Yank      key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous profile")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next profile")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select profile")),
		Toggle:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle profile")),
		Subtract:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "deselect profile")),
		Union:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "add profile")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear selection")),
		Lasso:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lasso cut line")),
		Mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle display mode")),
		ErrorBars: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "toggle error bars")),
		Group:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "cycle grouping")),
		Yank:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank selected row ids")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload dataset")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
