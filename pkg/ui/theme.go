package ui

import "github.com/charmbracelet/lipgloss"

// Theme bundles the lipgloss styles used by the viewer. The emphasis
// tiers map straight onto the visibility contract: emphasized profiles
// render bright and bold, dimmed profiles recede.
type Theme struct {
	Header     lipgloss.Style
	Status     lipgloss.Style
	Pane       lipgloss.Style
	PaneTitle  lipgloss.Style
	Plain      lipgloss.Style
	Emphasized lipgloss.Style
	Dimmed     lipgloss.Style
	Cursor     lipgloss.Style
	Help       lipgloss.Style
}

// groupColors is the deterministic group palette. Index with key %
// len(groupColors); the palette itself is opaque to the engine.
var groupColors = []lipgloss.Color{
	lipgloss.Color("39"),  // blue
	lipgloss.Color("208"), // orange
	lipgloss.Color("40"),  // green
	lipgloss.Color("160"), // red
	lipgloss.Color("135"), // purple
	lipgloss.Color("94"),  // brown
	lipgloss.Color("170"), // pink
	lipgloss.Color("245"), // gray
}

// GroupColor returns the palette color for a group key.
func GroupColor(key int) lipgloss.Color {
	if key < 0 {
		return lipgloss.Color("245")
	}
	return groupColors[key%len(groupColors)]
}

// NewTheme builds the default theme with the given accent color.
func NewTheme(accent string) Theme {
	if accent == "" {
		accent = "205"
	}
	return Theme{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Pane:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
		PaneTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		Plain:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Emphasized: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		Dimmed:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Cursor:     lipgloss.NewStyle().Reverse(true),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
