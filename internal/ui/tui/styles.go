package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor = "#7C3AED"
	errorColor   = "#EF4444"
	dimColor     = "#6B7280"
	userColor    = "#E5E7EB"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(userColor)).
			Bold(true)

	pickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	bubbleStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)

	destructiveToastStyle = toastStyle.
				BorderForeground(lipgloss.Color(errorColor))

	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color(dimColor)).
			MarginBottom(1)
)

// accentStyle colours text with a character's accent, falling back to the
// primary colour.
func accentStyle(accent string) lipgloss.Style {
	if accent == "" {
		accent = primaryColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Bold(true)
}
