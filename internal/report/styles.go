package report

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorAmber   = lipgloss.AdaptiveColor{Light: "#C77C02", Dark: "#F5A623"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			MarginTop(1)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	sourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	positiveStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	negativeStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

func severityStyle(s string) lipgloss.Style {
	switch s {
	case "high":
		return lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	case "medium":
		return lipgloss.NewStyle().Bold(true).Foreground(colorAmber)
	default:
		return lipgloss.NewStyle().Foreground(colorDim)
	}
}
