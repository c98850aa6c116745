package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Message lipgloss.Style
	Banner  lipgloss.Style
	Cell    lipgloss.Style
	Cursor  lipgloss.Style
	X       lipgloss.Style
	O       lipgloss.Style
	Empty   lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true),
		Status:  lipgloss.NewStyle().Faint(true),
		Message: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Banner: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
		Cell:   lipgloss.NewStyle().Width(5).Align(lipgloss.Center),
		Cursor: lipgloss.NewStyle().Width(5).Align(lipgloss.Center).Reverse(true),
		X:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		O:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Empty:  lipgloss.NewStyle().Faint(true),
	}
}
