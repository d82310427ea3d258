package main

import "github.com/charmbracelet/lipgloss"

// Styles
var (
	accentFg  = lipgloss.Color("#7C3AED")
	okFg      = lipgloss.Color("#22C55E")
	errFg     = lipgloss.Color("#EF4444")
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	borderCol = lipgloss.Color("#243141")

	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(baseDimFg).Width(12)
	okStyle    = lipgloss.NewStyle().Foreground(okFg)
	errStyle   = lipgloss.NewStyle().Foreground(errFg)
)

// field renders one label/value row.
func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// panel renders a titled box of rows.
func panel(title string, rows ...string) string {
	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), body))
}
