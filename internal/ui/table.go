package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// NewTable builds a lipgloss table with the CLI's default border and
// header styling, with rows set in bulk via Rows().
func NewTable(headers []string, rows [][]string) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	if ShouldUseColor() {
		return t
	}
	return t.BorderStyle(lipgloss.NewStyle())
}
