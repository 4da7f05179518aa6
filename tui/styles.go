package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorGreen  = lipgloss.Color("#50FA7B")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorRed    = lipgloss.Color("#FF5555")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorGray   = lipgloss.Color("#6272A4")
	colorWhite  = lipgloss.Color("#F8F8F2")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	labelStyle = lipgloss.NewStyle().Foreground(colorGray)
	valueStyle = lipgloss.NewStyle().Foreground(colorWhite)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(colorGray)
)

func stateStyle(state string) lipgloss.Style {
	switch state {
	case "STARTED", "MONITORING":
		return okStyle
	case "COMPLETED":
		return titleStyle
	default:
		return labelStyle
	}
}

func healthStyle(healthy bool, retrying bool) lipgloss.Style {
	switch {
	case !healthy:
		return critStyle
	case retrying:
		return warnStyle
	default:
		return okStyle
	}
}
