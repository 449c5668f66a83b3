// Package ui holds the terminal styles of the scanner console output.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorDanger    = lipgloss.Color("#EF4444") // Red
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
)

// Styles
var (
	BoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(ColorPrimary).Padding(0, 2)
	LabelStyle = lipgloss.NewStyle().Foreground(ColorMuted).Width(16)

	VenueUp   = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	VenueDown = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)

	BuyValue   = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	WarnValue  = lipgloss.NewStyle().Foreground(ColorWarning)
	MutedValue = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Row renders a label/value line.
func Row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}
