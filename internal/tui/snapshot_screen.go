package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"btrbk-restore/internal/btrbk"
)

const (
	snapshotOK     = "✓ Snapshots created successfully!"
	snapshotFailed = "✗ Error creating snapshots!"
)

type snapshotState struct {
	proc       *btrbk.Process
	running    bool
	cancelled  bool
	transcript btrbk.Transcript
	view       viewport.Model
	result     string
	failed     bool
	started    time.Time
	elapsed    time.Duration
}

type snapshotStartedMsg struct {
	proc *btrbk.Process
	err  error
}

type snapshotEventMsg struct {
	ev     btrbk.Event
	closed bool
}

func (m *appModel) startSnapshot() tea.Cmd {
	cb := m.callbacks
	if cb.StartSnapshot == nil {
		return m.setStatus("Snapshot creation unavailable", statusShort)
	}
	cfg := m.cfg
	m.screen = screenSnapshot
	m.snap = snapshotState{
		running: true,
		started: time.Now(),
		view:    viewport.New(80, 10),
	}
	m.resizeSnapshotView()
	m.appendSnapshotLine(fmt.Sprintf("$ %s %s", cfg.BackupTool, strings.Join(btrbk.RunArgs, " ")))
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		p, err := cb.StartSnapshot(cfg)
		return snapshotStartedMsg{proc: p, err: err}
	})
}

func waitForSnapshotEvent(p *btrbk.Process) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-p.Events()
		return snapshotEventMsg{ev: ev, closed: !ok}
	}
}

func (m appModel) handleSnapshotStarted(msg snapshotStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.finishSnapshot(msg.err)
		return m, cmd
	}
	m.snap.proc = msg.proc
	if m.snap.cancelled {
		msg.proc.Cancel()
	}
	return m, waitForSnapshotEvent(msg.proc)
}

func (m appModel) handleSnapshotEvent(msg snapshotEventMsg) (tea.Model, tea.Cmd) {
	if !m.snap.running {
		return m, nil
	}
	switch {
	case msg.closed:
		cmd := m.finishSnapshot(nil)
		return m, cmd
	case msg.ev.Done:
		cmd := m.finishSnapshot(msg.ev.Err)
		return m, cmd
	}
	m.appendSnapshotLine(msg.ev.Line)
	return m, waitForSnapshotEvent(m.snap.proc)
}

func (m *appModel) finishSnapshot(err error) tea.Cmd {
	m.snap.running = false
	m.snap.proc = nil
	m.snap.elapsed = time.Since(m.snap.started)
	if err == nil {
		m.snap.result = snapshotOK
		m.appendSnapshotLine("")
		return m.setStatus("New snapshots created successfully!", statusLong)
	}
	m.snap.failed = true
	m.snap.result = snapshotFailed
	reason := err.Error()
	if errors.Is(err, btrbk.ErrCancelled) {
		reason = "Operation cancelled by user"
	}
	m.appendSnapshotLine(reason)
	return m.setStatus("Snapshot creation failed: "+reason, statusLong)
}

func (m *appModel) appendSnapshotLine(line string) {
	m.snap.transcript.Add(line)
	m.refreshSnapshotView()
}

func (m *appModel) refreshSnapshotView() {
	width := m.snap.view.Width
	lines := m.snap.transcript.Lines()
	shown := make([]string, len(lines))
	for i, l := range lines {
		shown[i] = truncateRaw(l, width)
	}
	m.snap.view.SetContent(strings.Join(shown, "\n"))
	m.snap.view.GotoBottom()
}

func (m *appModel) resizeSnapshotView() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.snap.view.Width = maxInt(m.width-4, 10)
	m.snap.view.Height = maxInt(m.height-12, 3)
	m.refreshSnapshotView()
}

func (m appModel) updateSnapshotScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.snap.running {
		m.screen = screenMain
		m.snap = snapshotState{}
		return m, tea.Batch(m.scanCmd(), m.poolUsageCmd())
	}
	switch msg.String() {
	case "esc":
		if !m.snap.cancelled {
			m.snap.cancelled = true
			m.appendSnapshotLine("Cancelling...")
			if m.snap.proc != nil {
				m.snap.proc.Cancel()
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.snap.view, cmd = m.snap.view.Update(msg)
	return m, cmd
}

func (m appModel) renderSnapshotScreen(height int) string {
	var title string
	if m.snap.running {
		title = m.spinner.View() + " " + m.theme.fg(m.theme.StatusText).Render("Creating snapshots with "+m.cfg.BackupTool+"...")
	} else {
		title = m.theme.fg(m.theme.Title).Bold(true).Render(fmt.Sprintf("Finished in %s", m.snap.elapsed.Round(time.Second)))
	}
	lines := []string{"", "  " + title, ""}
	for _, l := range strings.Split(m.snap.view.View(), "\n") {
		lines = append(lines, "  "+m.theme.fg(m.theme.TextPrimary).Render(l))
	}
	if m.snap.result != "" {
		color := m.theme.Success
		if m.snap.failed {
			color = m.theme.Danger
		}
		lines = append(lines, "", "  "+m.theme.fg(color).Bold(true).Render(m.snap.result))
	}
	return strings.Join(fitLines(lines, height), "\n")
}
