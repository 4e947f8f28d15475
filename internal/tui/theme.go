package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the dashboard. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Accent     lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	StatusCompleted lipgloss.Color
	StatusActive    lipgloss.Color
	StatusAbandoned lipgloss.Color

	UserText      lipgloss.Color
	AssistantText lipgloss.Color
	ErrorText     lipgloss.Color

	BorderColor lipgloss.Color
	HelpText    lipgloss.Color
}

// DefaultTheme suits dark terminals
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),
	Accent:     lipgloss.Color("99"),

	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),

	StatusCompleted: lipgloss.Color("42"),
	StatusActive:    lipgloss.Color("39"),
	StatusAbandoned: lipgloss.Color("214"),

	UserText:      lipgloss.Color("39"),
	AssistantText: lipgloss.Color("141"),
	ErrorText:     lipgloss.Color("196"),

	BorderColor: lipgloss.Color("240"),
	HelpText:    lipgloss.Color("241"),
}
