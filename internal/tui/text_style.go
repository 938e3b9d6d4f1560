package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (t UITheme) fg(c string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

// colorizeDetailLine styles "label: value" lines in two colors.
func colorizeDetailLine(line string, theme UITheme) string {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return theme.fg(theme.DetailsValue).Render(line)
	}
	label := theme.fg(theme.DetailsLabel).Render(line[:idx+1])
	value := strings.TrimSpace(line[idx+1:])
	if value == "" {
		return label
	}
	return label + " " + theme.fg(theme.DetailsValue).Render(value)
}
