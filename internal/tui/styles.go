package tui

import "github.com/charmbracelet/lipgloss"

// ANSI palette, readable on light and dark terminals.
const (
	colorSuccess lipgloss.Color = "2"
	colorError   lipgloss.Color = "1"
	colorWarning lipgloss.Color = "3"
	colorInfo    lipgloss.Color = "6"
	colorPrimary lipgloss.Color = "7"
	colorMuted   lipgloss.Color = "8"
)

// cardWidth fits "100.25℃" with padding.
const cardWidth = 18

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorInfo)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(cardWidth)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	emptyValueStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	okStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	failStyle = lipgloss.NewStyle().
			Foreground(colorError)

	actionStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)
