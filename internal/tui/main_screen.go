package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"btrbk-restore/internal/restore"
	"btrbk-restore/internal/snapshot"
)

func (m appModel) updateMain(key string) (tea.Model, tea.Cmd) {
	groups := m.listing.Groups
	switch key {
	case "q", "Q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if g, ok := m.currentGroup(); ok && m.row < len(g.Entries)-1 {
			m.row++
		}
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampSelection()
		}
	case "right", "l":
		if m.col < len(groups)-1 {
			m.col++
			m.clampSelection()
		}
	case "enter":
		g, ok := m.currentGroup()
		if !ok || m.row >= len(g.Entries) {
			return m, nil
		}
		req := restore.Request{Snapshot: g.Entries[m.row].Name, Subvolume: g.Subvolume()}
		cmd := m.askConfirm(fmt.Sprintf("Restore %s snapshot?", g.Subvolume()), actionRestore, req)
		return m, cmd
	case "s", "S":
		m.screen = screenSettings
		m.settingsCursor = 0
	case "r", "R":
		cmd := tea.Batch(m.setStatus("Refreshed snapshot list", statusShort), m.scanCmd(), m.poolUsageCmd())
		return m, cmd
	case "i", "I":
		cmd := m.askConfirm("Create new snapshots with btrbk?", actionSnapshot, restore.Request{})
		return m, cmd
	case "p", "P":
		cmd := m.askConfirm("Purge old snapshots (keep only most recent)?", actionPurge, restore.Request{})
		return m, cmd
	case "c", "C":
		cmd := m.planCleanBrokenCmd()
		return m, cmd
	case "L":
		cmd := m.openHistory()
		return m, cmd
	case "?":
		cmd := m.openHelpModal()
		return m, cmd
	case "H":
		if !m.rebootNeeded {
			cmd := m.setStatus("No reboot needed", statusShort)
			return m, cmd
		}
		cmd := m.askConfirm("Reboot system now?", actionReboot, restore.Request{})
		return m, cmd
	}
	return m, nil
}

func (m appModel) currentGroup() (snapshot.Group, bool) {
	if m.col < 0 || m.col >= len(m.listing.Groups) {
		return snapshot.Group{}, false
	}
	return m.listing.Groups[m.col], true
}

// clampSelection keeps the cursor inside the listing after a rescan or a
// column switch to a shorter column.
func (m *appModel) clampSelection() {
	if len(m.listing.Groups) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = clampInt(m.col, 0, len(m.listing.Groups)-1)
	n := len(m.listing.Groups[m.col].Entries)
	if n == 0 {
		m.row = 0
		return
	}
	m.row = clampInt(m.row, 0, n-1)
}

func (m appModel) renderMain(height int) string {
	if m.listing.Empty() {
		lines := make([]string, 0, height)
		for i := 0; i < height/2; i++ {
			lines = append(lines, "")
		}
		lines = append(lines, m.theme.fg(m.theme.Warning).Bold(true).Render(centerLine("No snapshots found!", m.width)))
		if m.scanErr != nil {
			lines = append(lines, m.theme.fg(m.theme.TextMuted).Render(centerLine(truncateRaw(m.scanErr.Error(), m.width), m.width)))
		}
		return strings.Join(fitLines(lines, height), "\n")
	}

	groups := m.listing.Groups
	colWidth := (m.width - 4) / len(groups)
	if colWidth < 8 {
		colWidth = 8
	}
	// header, blank, entries, blank, detail line
	visible := height - 4
	if visible < 1 {
		visible = 1
	}

	cols := make([]string, 0, len(groups))
	for ci, g := range groups {
		header := fmt.Sprintf("%s (%d)", strings.ToUpper(g.Subvolume()), len(g.Entries))
		lines := []string{m.theme.fg(m.theme.ColumnHeader).Bold(true).Render(runewidth.Truncate(header, colWidth-2, "…")), ""}
		offset := 0
		if ci == m.col && m.row >= visible {
			offset = m.row - visible + 1
		}
		for ri := offset; ri < len(g.Entries) && ri < offset+visible; ri++ {
			label := snapshot.Format(g.Entries[ri].Name, m.cfg.ShowTimestamps)
			label = runewidth.FillRight(runewidth.Truncate(label, colWidth-2, "…"), colWidth-2)
			if ci == m.col && ri == m.row {
				label = lipgloss.NewStyle().
					Foreground(lipgloss.Color(m.theme.SelectionFg)).
					Background(lipgloss.Color(m.theme.SelectionBg)).
					Render(label)
			} else {
				label = m.theme.fg(m.theme.TextPrimary).Render(label)
			}
			lines = append(lines, label)
		}
		cols = append(cols, lipgloss.NewStyle().Width(colWidth).Render(strings.Join(lines, "\n")))
	}
	body := lipgloss.NewStyle().PaddingLeft(2).Render(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	out := fitLines(strings.Split(body, "\n"), height-1)
	return strings.Join(append(out, m.renderSelectionDetail()), "\n")
}

func (m appModel) renderSelectionDetail() string {
	g, ok := m.currentGroup()
	if !ok || m.row >= len(g.Entries) {
		return ""
	}
	target := filepath.Join(m.cfg.BtrPoolDir, g.Prefix)
	line := fmt.Sprintf("snapshot: %s -> %s", g.Entries[m.row].Name, target)
	return "  " + colorizeDetailLine(truncateRaw(line, m.width-2), m.theme)
}
