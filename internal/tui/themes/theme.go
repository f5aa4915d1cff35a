// Package themes holds the color schemes of the browse view.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Credit    lipgloss.Style
	Debit     lipgloss.Style
	Muted     lipgloss.Style
	Primary   lipgloss.Color
	Border    lipgloss.Color
	MutedText lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary:   lipgloss.Color("#5b8def"),
	Border:    lipgloss.Color("#404040"),
	MutedText: lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#5b8def")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Header: lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		BorderBottom(true).
		Bold(true).
		Padding(0, 1),
	Footer: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	Credit: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	Debit: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
}

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = Theme{
	Primary:   lipgloss.Color("#cba6f7"),
	Border:    lipgloss.Color("#45475a"),
	MutedText: lipgloss.Color("#6c7086"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#cdd6f4")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a6adc8")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#cba6f7")).
		Foreground(lipgloss.Color("#1e1e2e")).
		Bold(true),
	Header: lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#45475a")).
		BorderBottom(true).
		Bold(true).
		Padding(0, 1),
	Footer: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#45475a")).
		Padding(0, 1),
	Credit: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a6e3a1")),
	Debit: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f38ba8")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6c7086")),
}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
