package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"btrbk-restore/internal/config"
)

func (m appModel) updateSettings(key string) (tea.Model, tea.Cmd) {
	fields := config.Fields()
	switch key {
	case "up", "k":
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
	case "down", "j":
		if m.settingsCursor < len(fields)-1 {
			m.settingsCursor++
		}
	case "enter":
		f := fields[m.settingsCursor]
		if f.Kind == config.FieldBool {
			return m.toggleSetting(f.Key)
		}
		current, _ := m.cfg.Get(f.Key)
		cmd := m.openEdit(f.Key, f.Label, current)
		return m, cmd
	case " ":
		if f := fields[m.settingsCursor]; f.Kind == config.FieldBool {
			return m.toggleSetting(f.Key)
		}
	case "s", "S":
		cmd := m.saveConfigCmd("Settings saved manually!")
		return m, cmd
	case "esc":
		m.screen = screenMain
		m.settingsCursor = 0
	}
	return m, nil
}

func (m appModel) toggleSetting(key string) (tea.Model, tea.Cmd) {
	if err := m.cfg.Toggle(key); err != nil {
		cmd := m.setStatus("Error: "+err.Error(), statusShort)
		return m, cmd
	}
	cmd := m.saveConfigCmd("Toggled " + key)
	return m, cmd
}

func (m appModel) renderSettings(height int) string {
	lines := []string{"", "  " + m.theme.fg(m.theme.ColumnHeader).Bold(true).Render("SETTINGS"), ""}
	selected := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.SelectionFg)).
		Background(lipgloss.Color(m.theme.SelectionBg))
	for i, f := range config.Fields() {
		value, _ := m.cfg.Get(f.Key)
		label := "  " + f.Label + ":"
		val := "    " + truncateRaw(value, m.width-6)
		if i == m.settingsCursor {
			lines = append(lines, selected.Render(label), selected.Render(val))
		} else {
			lines = append(lines, m.theme.fg(m.theme.DetailsLabel).Render(label), m.theme.fg(m.theme.DetailsValue).Render(val))
		}
	}
	lines = append(lines, "", m.theme.fg(m.theme.TextMuted).Render(truncateRaw("  "+m.configPathLine(), m.width)))
	return strings.Join(fitLines(lines, height), "\n")
}

func (m appModel) configPathLine() string {
	if m.callbacks.ConfigPath == nil {
		return "Config: (unknown)"
	}
	p, exists := m.callbacks.ConfigPath()
	state := "NOT FOUND"
	if exists {
		state = "EXISTS"
	}
	return fmt.Sprintf("Config: %s (%s)", p, state)
}
