package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	neonRed     = lipgloss.Color("#FF0000")
	darkBg      = lipgloss.Color("#0A0E27")
	dimWhite    = lipgloss.Color("#B0B0B0")

	headerStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			Padding(1, 0, 0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Background(neonMagenta).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			Width(12)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	writtenStyle = lipgloss.NewStyle().Foreground(neonGreen).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(neonOrange)
	stoppedStyle = lipgloss.NewStyle().Foreground(neonRed).Bold(true)

	idStyle    = lipgloss.NewStyle().Foreground(neonCyan)
	titleDim   = lipgloss.NewStyle().Foreground(dimWhite).Faint(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).Padding(1, 0, 0, 2)
	errorStyle = lipgloss.NewStyle().Foreground(neonRed).Bold(true)
)
