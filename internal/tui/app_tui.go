package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"btrbk-restore/internal/btrbk"
	"btrbk-restore/internal/config"
	"btrbk-restore/internal/maintenance"
	"btrbk-restore/internal/oplog"
	"btrbk-restore/internal/restore"
	"btrbk-restore/internal/snapshot"
)

// AppCallbacks connects the UI to the operations. Every callback runs
// inside a tea.Cmd, off the UI goroutine.
type AppCallbacks struct {
	Scan            func(cfg config.Config) (snapshot.Listing, error)
	Restore         func(cfg config.Config, req restore.Request) (restore.Result, error)
	PlanCleanBroken func(cfg config.Config) ([]string, error)
	Purge           func(cfg config.Config) maintenance.Result
	CleanBroken     func(cfg config.Config) maintenance.Result
	StartSnapshot   func(cfg config.Config) (*btrbk.Process, error)
	Reboot          func() error
	SaveConfig      func(cfg config.Config) error
	History         func(limit int) ([]oplog.Entry, error)
	// PoolUsage returns a short free-space summary, or "" when unknown.
	PoolUsage func(cfg config.Config) string
	// ConfigPath reports the config file and whether it exists.
	ConfigPath func() (string, bool)

	Config  config.Config
	Version string
	Theme   UITheme
}

type screen int

const (
	screenMain screen = iota
	screenSettings
	screenSnapshot
	screenHistory
)

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirm
	modalEdit
	modalResult
	modalHelp
)

const (
	statusShort = 5 * time.Second
	statusLong  = 15 * time.Second

	historyLimit = 200
)

type appModel struct {
	callbacks  AppCallbacks
	cfg        config.Config
	width      int
	height     int
	screen     screen
	theme      UITheme
	appVersion string

	listing  snapshot.Listing
	scanErr  error
	col      int
	row      int
	poolInfo string

	status       string
	statusSeq    int
	busy         bool
	busyLabel    string
	spinner      spinner.Model
	rebootNeeded bool
	quitting     bool

	modalActive  bool
	modalKind    modalKind
	confirm      confirmState
	edit         editState
	resultText   string
	resultScroll int
	helpText     string

	settingsCursor int
	snap           snapshotState
	history        list.Model
	historyErr     error
}

type scanMsg struct {
	listing snapshot.Listing
	err     error
}

type poolUsageMsg struct {
	info string
}

type restoreDoneMsg struct {
	res restore.Result
	err error
}

type maintenanceDoneMsg struct {
	op  confirmAction
	res maintenance.Result
}

type cleanPlanMsg struct {
	names []string
	err   error
}

type rebootMsg struct {
	err error
}

type configSavedMsg struct {
	status string
	err    error
}

type statusExpiredMsg struct {
	seq int
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func RunApp(callbacks AppCallbacks) error {
	m := newAppModel(callbacks)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(appModel); ok && fm.snap.proc != nil {
		fm.snap.proc.Cancel()
	}
	return err
}

func newAppModel(callbacks AppCallbacks) appModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	cfg := callbacks.Config
	config.EnsureDefaults(&cfg)
	th := callbacks.Theme.withDefaults()
	sp.Style = th.fg(th.StatusText)
	return appModel{
		callbacks:  callbacks,
		cfg:        cfg,
		screen:     screenMain,
		theme:      th,
		appVersion: callbacks.Version,
		spinner:    sp,
		history:    newHistoryList(nil),
		edit:       editState{input: textinput.New()},
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.scanCmd(), m.poolUsageCmd())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeHistory()
		m.resizeSnapshotView()
		return m, nil
	case spinner.TickMsg:
		if !m.busy && !m.snap.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	case scanMsg:
		m.listing = msg.listing
		m.scanErr = msg.err
		m.clampSelection()
		return m, nil
	case poolUsageMsg:
		m.poolInfo = msg.info
		return m, nil
	case restoreDoneMsg:
		m.busy = false
		return m.handleRestoreDone(msg)
	case maintenanceDoneMsg:
		m.busy = false
		return m.handleMaintenanceDone(msg)
	case cleanPlanMsg:
		m.busy = false
		return m.handleCleanPlan(msg)
	case rebootMsg:
		m.busy = false
		if msg.err != nil {
			cmd := tea.Batch(m.setStatus("Reboot failed: "+msg.err.Error(), statusLong), m.openResultModal("Reboot failed\n"+msg.err.Error()))
			return m, cmd
		}
		cmd := m.setStatus("Rebooting...", statusLong)
		return m, cmd
	case configSavedMsg:
		if msg.err != nil {
			cmd := m.setStatus("Error saving settings: "+msg.err.Error(), statusLong)
			return m, cmd
		}
		cmd := tea.Batch(m.setStatus(msg.status, statusShort), m.scanCmd(), m.poolUsageCmd())
		return m, cmd
	case historyMsg:
		m.setHistory(msg)
		return m, nil
	case snapshotStartedMsg:
		return m.handleSnapshotStarted(msg)
	case snapshotEventMsg:
		return m.handleSnapshotEvent(msg)
	case tea.KeyMsg:
		s := msg.String()
		if s == "ctrl+c" {
			m.quitting = true
			if m.snap.proc != nil {
				m.snap.proc.Cancel()
			}
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.modalActive {
			return m.updateModalInput(msg)
		}
		switch m.screen {
		case screenSettings:
			return m.updateSettings(s)
		case screenSnapshot:
			return m.updateSnapshotScreen(msg)
		case screenHistory:
			return m.updateHistory(msg)
		default:
			return m.updateMain(s)
		}
	}
	if m.screen == screenHistory {
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}
	return m, nil
}

// setStatus shows text until d elapses or a newer status replaces it.
func (m *appModel) setStatus(text string, d time.Duration) tea.Cmd {
	m.statusSeq++
	m.status = text
	seq := m.statusSeq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

func (m *appModel) startBusy(label string) tea.Cmd {
	m.busy = true
	m.busyLabel = label
	return m.spinner.Tick
}

func (m appModel) scanCmd() tea.Cmd {
	if m.callbacks.Scan == nil {
		return nil
	}
	cfg := m.cfg
	return func() tea.Msg {
		l, err := m.callbacks.Scan(cfg)
		return scanMsg{listing: l, err: err}
	}
}

func (m appModel) poolUsageCmd() tea.Cmd {
	if m.callbacks.PoolUsage == nil {
		return nil
	}
	cfg := m.cfg
	return func() tea.Msg {
		return poolUsageMsg{info: m.callbacks.PoolUsage(cfg)}
	}
}

func (m appModel) saveConfigCmd(status string) tea.Cmd {
	if m.callbacks.SaveConfig == nil {
		return func() tea.Msg { return configSavedMsg{status: status} }
	}
	cfg := m.cfg
	return func() tea.Msg {
		return configSavedMsg{status: status, err: m.callbacks.SaveConfig(cfg)}
	}
}

func (m *appModel) openResultModal(text string) tea.Cmd {
	m.modalActive = true
	m.modalKind = modalResult
	m.resultText = strings.TrimSpace(text)
	if m.resultText == "" {
		m.resultText = "Done."
	}
	m.resultScroll = 0
	return nil
}

func (m *appModel) openHelpModal() tea.Cmd {
	m.modalActive = true
	m.modalKind = modalHelp
	m.resultScroll = 0
	m.helpText = renderHelp(m.modalWidth() - 8)
	return nil
}

func (m *appModel) closeModal() {
	m.modalActive = false
	m.modalKind = modalNone
	m.confirm = confirmState{}
	m.resultText = ""
	m.resultScroll = 0
	m.edit.input.Blur()
}

func (m appModel) updateModalInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.modalKind {
	case modalConfirm:
		return m.updateConfirm(key)
	case modalEdit:
		return m.updateEdit(msg)
	case modalResult, modalHelp:
		switch key {
		case "esc", "enter", " ", "q":
			m.closeModal()
		case "up", "k":
			if m.resultScroll > 0 {
				m.resultScroll--
			}
		case "down", "j":
			m.resultScroll++
		}
		return m, nil
	}
	return m, nil
}

func (m appModel) View() string {
	if m.quitting {
		return "Exited.\n"
	}
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - len(header) - len(footer)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	var body string
	switch m.screen {
	case screenSettings:
		body = m.renderSettings(bodyHeight)
	case screenSnapshot:
		body = m.renderSnapshotScreen(bodyHeight)
	case screenHistory:
		body = m.renderHistory(bodyHeight)
	default:
		body = m.renderMain(bodyHeight)
	}

	out := make([]string, 0, len(header)+len(footer)+1)
	out = append(out, header...)
	out = append(out, body)
	out = append(out, footer...)
	view := strings.Join(out, "\n")
	if m.modalActive {
		backdrop := applyBackdrop(view, m.width, m.height)
		view = overlayCentered(backdrop, m.renderModalOverlay(), m.width, m.height)
	}
	return view + "\n"
}

func (m appModel) renderHeader() []string {
	title := "BTRBK Restore Tool " + formatVersionLabel(m.appVersion)
	titleLine := m.theme.fg(m.theme.Title).Bold(true).Render(centerLine(title, m.width))
	info := fmt.Sprintf("Pool: %s | Snapshots: %s", m.cfg.BtrPoolDir, m.cfg.SnapshotsDir)
	if m.poolInfo != "" {
		info += " | " + m.poolInfo
	}
	infoLine := m.theme.fg(m.theme.TextMuted).Render(truncateRaw(info, m.width))
	rule := m.theme.fg(m.theme.BorderMuted).Render(strings.Repeat("─", maxInt(m.width, 1)))
	return []string{titleLine, rule, infoLine}
}

func (m appModel) renderFooter() []string {
	var statusLine string
	switch {
	case m.rebootNeeded:
		statusLine = m.theme.fg(m.theme.Warning).Bold(true).Render(truncateRaw("⚠ REBOOT REQUIRED - Press H to reboot system ⚠", m.width))
	case m.busy:
		statusLine = m.spinner.View() + " " + m.theme.fg(m.theme.StatusText).Render(truncateRaw(m.busyLabel, m.width-2))
	default:
		statusLine = m.theme.fg(m.theme.StatusText).Render(truncateRaw(m.status, m.width))
	}
	var help string
	switch m.screen {
	case screenSettings:
		help = settingsHelp()
	case screenSnapshot:
		help = snapshotHelp(m.snap.running)
	case screenHistory:
		help = historyHelp()
	default:
		help = mainHelp(m.rebootNeeded)
	}
	// The persistent banner hides transient messages; keep them visible
	// on a second line.
	lines := []string{statusLine}
	if m.rebootNeeded && m.status != "" && !m.busy {
		lines = append(lines, m.theme.fg(m.theme.StatusText).Render(truncateRaw(m.status, m.width)))
	}
	rule := m.theme.fg(m.theme.BorderMuted).Render(strings.Repeat("─", maxInt(m.width, 1)))
	return append(lines, rule, m.theme.fg(m.theme.HelpText).Render(truncateRaw(help, m.width)))
}

func (m appModel) modalWidth() int {
	width := m.width - 6
	if width <= 0 {
		width = 94
	}
	if width > 80 {
		width = 80
	}
	if width < 36 {
		width = 36
	}
	return width
}

func (m appModel) renderModalOverlay() string {
	width := m.modalWidth()
	title := ""
	var lines []string
	border := lipgloss.Color(m.theme.PopupBorder)
	switch m.modalKind {
	case modalConfirm:
		title = "Confirm"
		if m.confirm.action == actionReboot {
			border = lipgloss.Color(m.theme.Warning)
		}
		lines = fitAndWrapLines([]string{m.confirm.question, "", "Y: Yes | N: No"}, 8, panelInnerWidth(width))
	case modalEdit:
		title = "Edit " + m.edit.label
		lines = []string{
			truncateRaw("Current: "+m.edit.current, panelInnerWidth(width)),
			m.edit.input.View(),
			"",
			"Enter save | Esc cancel",
		}
	case modalResult:
		title = "Result"
		lines = scrollLines(wrapLines(strings.Split(m.resultText, "\n"), panelInnerWidth(width)), m.resultScroll, 14)
	case modalHelp:
		title = "Help"
		lines = scrollLines(strings.Split(strings.TrimRight(m.helpText, "\n"), "\n"), m.resultScroll, maxInt(m.height-8, 8))
	}
	if title != "" {
		title = m.theme.fg(m.theme.Title).Bold(true).Render(title)
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(width).
		Render(title + "\n" + strings.Join(lines, "\n"))
}

// scrollLines returns a window of at most maxLines starting at offset,
// with a footer when the content overflows.
func scrollLines(lines []string, offset, maxLines int) []string {
	if len(lines) == 0 {
		lines = []string{"(no output)"}
	}
	footer := "Enter/Esc close"
	if len(lines) <= maxLines-2 {
		return append(append([]string(nil), lines...), "", footer)
	}
	offset = clampInt(offset, 0, len(lines)-1)
	end := offset + maxLines - 2
	if end > len(lines) {
		end = len(lines)
	}
	visible := append([]string(nil), lines[offset:end]...)
	footer = fmt.Sprintf("↑/↓ scroll | Enter/Esc close (%d/%d)", offset+1, len(lines))
	return append(visible, "", footer)
}

func overlayCentered(base, overlay string, width, height int) string {
	baseLines := padBlock(strings.Split(stripANSI(base), "\n"), width, height)
	overLines := strings.Split(overlay, "\n")

	overW := 0
	for _, l := range overLines {
		if w := lipgloss.Width(l); w > overW {
			overW = w
		}
	}
	startY := maxInt((height-len(overLines))/2, 0)
	startX := maxInt((width-overW)/2, 0)
	for y := 0; y < len(overLines) && startY+y < len(baseLines); y++ {
		row := []rune(baseLines[startY+y])
		for len(row) < startX+overW {
			row = append(row, ' ')
		}
		w := lipgloss.Width(overLines[y])
		if startX+w > len(row) {
			w = len(row) - startX
		}
		baseLines[startY+y] = string(row[:startX]) + overLines[y] + string(row[startX+w:])
	}
	return strings.Join(baseLines, "\n")
}

// applyBackdrop strips colors and softens box drawing so the modal stands out.
func applyBackdrop(base string, width, height int) string {
	lines := padBlock(strings.Split(stripANSI(base), "\n"), width, height)
	for i := range lines {
		r := []rune(lines[i])
		for j := range r {
			r[j] = softenRune(r[j])
		}
		lines[i] = string(r)
	}
	return strings.Join(lines, "\n")
}

// padBlock forces lines into a width x height rectangle.
func padBlock(lines []string, width, height int) []string {
	width = maxInt(width, 1)
	if height < 1 {
		height = maxInt(len(lines), 1)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]
	for i := range lines {
		r := []rune(lines[i])
		if len(r) < width {
			lines[i] += strings.Repeat(" ", width-len(r))
		} else if len(r) > width {
			lines[i] = string(r[:width])
		}
	}
	return lines
}

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

func softenRune(r rune) rune {
	switch r {
	case '│', '┃':
		return '┆'
	case '─', '━':
		return '┄'
	case '╭', '┌':
		return '┍'
	case '╮', '┐':
		return '┑'
	case '╰', '└':
		return '┕'
	case '╯', '┘':
		return '┙'
	default:
		return r
	}
}

func fitLines(lines []string, maxLines int) []string {
	if maxLines <= 0 {
		return []string{}
	}
	if len(lines) > maxLines {
		out := append([]string(nil), lines[:maxLines-1]...)
		return append(out, "~")
	}
	out := append([]string(nil), lines...)
	for len(out) < maxLines {
		out = append(out, "")
	}
	return out
}

func centerLine(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return truncateRaw(s, width)
	}
	return strings.Repeat(" ", (width-w)/2) + s
}

func formatVersionLabel(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "vdev"
	}
	if strings.HasPrefix(trimmed, "v") {
		return trimmed
	}
	return "v" + trimmed
}

func panelInnerWidth(totalWidth int) int {
	return maxInt(totalWidth-4, 1)
}

func fitAndWrapLines(lines []string, maxLines, maxWidth int) []string {
	wrapped := wrapLines(lines, maxWidth)
	if len(wrapped) > maxLines {
		return fitLines(wrapped, maxLines)
	}
	return wrapped
}

func wrapLines(lines []string, width int) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return out
}

func wrapLine(s string, width int) []string {
	s = strings.TrimSpace(s)
	if width <= 0 || s == "" {
		return []string{""}
	}
	var out []string
	current := ""
	for _, w := range strings.Fields(s) {
		for len([]rune(w)) > width {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			r := []rune(w)
			out = append(out, string(r[:width]))
			w = string(r[width:])
		}
		switch {
		case current == "":
			current = w
		case len([]rune(current))+1+len([]rune(w)) <= width:
			current += " " + w
		default:
			out = append(out, current)
			current = w
		}
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func truncateRaw(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "~"
	}
	return string(r[:max-1]) + "~"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
