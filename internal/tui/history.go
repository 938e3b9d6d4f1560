package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"btrbk-restore/internal/oplog"
)

// historyItem adapts an oplog entry to the list delegate. Title and
// description stay plain text; ANSI breaks the delegate's truncation.
type historyItem struct {
	entry oplog.Entry
}

func (i historyItem) Title() string {
	return fmt.Sprintf("[%s] %s - %s", formatLogTime(i.entry.Timestamp), strings.ToUpper(i.entry.Command), i.entry.Status)
}

func (i historyItem) Description() string {
	var parts []string
	if i.entry.Duration > 0 {
		parts = append(parts, (time.Duration(i.entry.Duration) * time.Millisecond).Round(100*time.Millisecond).String())
	}
	for _, k := range []string{"snapshot", "subvolume", "backup", "count"} {
		if v, ok := i.entry.Args[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
	}
	if i.entry.Message != "" {
		parts = append(parts, i.entry.Message)
	}
	return strings.Join(parts, " | ")
}

func (i historyItem) FilterValue() string {
	return i.entry.Command + " " + i.entry.Status + " " + i.entry.Message
}

func formatLogTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04")
}

type historyMsg struct {
	entries []oplog.Entry
	err     error
}

func newHistoryList(entries []oplog.Entry) list.Model {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Operation history (%d)", len(entries))
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	return l
}

func (m *appModel) openHistory() tea.Cmd {
	m.screen = screenHistory
	m.history = newHistoryList(nil)
	m.historyErr = nil
	m.resizeHistory()
	cb := m.callbacks
	if cb.History == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := cb.History(historyLimit)
		return historyMsg{entries: entries, err: err}
	}
}

func (m *appModel) setHistory(msg historyMsg) {
	m.historyErr = msg.err
	m.history = newHistoryList(msg.entries)
	m.history.Styles.Title = m.history.Styles.Title.Background(lipgloss.Color(m.theme.Title)).Foreground(lipgloss.Color(m.theme.SelectionFg))
	m.resizeHistory()
}

func (m *appModel) resizeHistory() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.history.SetSize(maxInt(m.width-4, 20), maxInt(m.height-9, 4))
}

func (m appModel) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" && m.history.FilterState() == list.Unfiltered {
		m.screen = screenMain
		return m, nil
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m appModel) renderHistory(height int) string {
	if m.historyErr != nil {
		lines := []string{"", "  " + m.theme.fg(m.theme.Danger).Render("Cannot read history: "+m.historyErr.Error())}
		return strings.Join(fitLines(lines, height), "\n")
	}
	if len(m.history.Items()) == 0 {
		lines := []string{"", "  " + m.theme.fg(m.theme.TextMuted).Render("No operations recorded yet")}
		return strings.Join(fitLines(lines, height), "\n")
	}
	body := strings.Split(m.history.View(), "\n")
	for i := range body {
		body[i] = "  " + body[i]
	}
	return strings.Join(fitLines(body, height), "\n")
}
