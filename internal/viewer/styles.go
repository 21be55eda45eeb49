package viewer

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/convoview/internal/timeline"
)

var (
	colorGray    = lipgloss.Color("#6B7280")
	colorDimGray = lipgloss.Color("#374151")
	colorWhite   = lipgloss.Color("#F9FAFB")
	colorYellow  = lipgloss.Color("#FACC15")
	colorRed     = lipgloss.Color("#EF4444")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(timeline.OperatorColor))

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorDimGray)

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	statValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorDimGray)

	playheadStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)
)

// speakerStyle colors a speaker label like its timeline region.
func speakerStyle(speaker int) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(speaker == 0).
		Foreground(lipgloss.Color(timeline.SpeakerColor(speaker)))
}

// badgeStyle renders a class or emotion tag on the given background.
func badgeStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colorWhite).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}
