package ui

import "github.com/charmbracelet/lipgloss"

// Palette used across table rendering and status badges. Kept small and
// adaptive rather than a full theme system.
var (
	ColorAccent = lipgloss.Color("6")  // cyan: headers, active selections
	ColorMuted  = lipgloss.Color("8")  // gray: borders, secondary text
	ColorPass   = lipgloss.Color("2")  // green: Released, Approved
	ColorWarn   = lipgloss.Color("3")  // yellow: InReview, Pending
	ColorFail   = lipgloss.Color("1")  // red: Rejected, Obsolete
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
)

// StatusStyle returns the style that colors a revision status badge.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "Released", "Approved":
		return PassStyle
	case "InReview", "Pending":
		return WarnStyle
	case "Obsolete", "Rejected":
		return FailStyle
	default:
		return MutedStyle
	}
}
