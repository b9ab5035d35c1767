package board

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8F9FA")).
			Background(colorAccent).
			Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(colorAccent)

	headerStyle = lipgloss.NewStyle().Bold(true)

	cardStyle = lipgloss.NewStyle().PaddingLeft(1)

	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent).
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(colorAccent)

	mutedStyle = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	errorStyle = lipgloss.NewStyle().Foreground(colorRed)
)
