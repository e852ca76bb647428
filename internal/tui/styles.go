package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/devpulse/internal/classify"
)

// Color palette.
var (
	colorYellow  = lipgloss.Color("#f1fa8c")
	colorBlue    = lipgloss.Color("#8be9fd")
	colorPurple  = lipgloss.Color("#bd93f9")
	colorRed     = lipgloss.Color("#ff5555")
	colorDim     = lipgloss.Color("#6272a4")
	colorBgLight = lipgloss.Color("#343746")
	colorFg      = lipgloss.Color("#f8f8f2")
	colorBorder  = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	inputErrorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	errorPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Bold(true)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)

	// Tabs
	tabStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBorder).
			Bold(true).
			Padding(0, 1)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	// Help bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// tokenStyle colors text with a classification color token.
func tokenStyle(c classify.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex()))
}

// badgeStyle renders a token as a filled badge.
func badgeStyle(c classify.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1e1e2e")).
		Background(lipgloss.Color(c.Hex())).
		Bold(true).
		Padding(0, 1)
}
