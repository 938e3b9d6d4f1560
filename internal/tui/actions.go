package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"btrbk-restore/internal/maintenance"
	"btrbk-restore/internal/restore"
)

func (m *appModel) runAction(a confirmAction, req restore.Request) tea.Cmd {
	cb := m.callbacks
	cfg := m.cfg
	switch a {
	case actionRestore:
		if cb.Restore == nil {
			return m.setStatus("Restore unavailable", statusShort)
		}
		return tea.Batch(m.startBusy("Restoring snapshot..."), func() tea.Msg {
			res, err := cb.Restore(cfg, req)
			return restoreDoneMsg{res: res, err: err}
		})
	case actionPurge:
		if cb.Purge == nil {
			return m.setStatus("Purge unavailable", statusShort)
		}
		return tea.Batch(m.startBusy("Purging old snapshots..."), func() tea.Msg {
			return maintenanceDoneMsg{op: actionPurge, res: cb.Purge(cfg)}
		})
	case actionCleanBroken:
		if cb.CleanBroken == nil {
			return m.setStatus("Cleanup unavailable", statusShort)
		}
		return tea.Batch(m.startBusy("Deleting .BROKEN subvolumes..."), func() tea.Msg {
			return maintenanceDoneMsg{op: actionCleanBroken, res: cb.CleanBroken(cfg)}
		})
	case actionSnapshot:
		return m.startSnapshot()
	case actionReboot:
		if cb.Reboot == nil {
			return m.setStatus("Reboot unavailable", statusShort)
		}
		return tea.Batch(m.startBusy("Rebooting..."), func() tea.Msg {
			return rebootMsg{err: cb.Reboot()}
		})
	}
	return nil
}

func (m *appModel) planCleanBrokenCmd() tea.Cmd {
	cb := m.callbacks
	if cb.PlanCleanBroken == nil {
		return nil
	}
	cfg := m.cfg
	return tea.Batch(m.startBusy("Looking for .BROKEN subvolumes..."), func() tea.Msg {
		names, err := cb.PlanCleanBroken(cfg)
		return cleanPlanMsg{names: names, err: err}
	})
}

func (m appModel) handleCleanPlan(msg cleanPlanMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := m.setStatus("Error reading pool: "+msg.err.Error(), statusLong)
		return m, cmd
	}
	if len(msg.names) == 0 {
		cmd := m.setStatus("No .BROKEN subvolumes found", statusShort)
		return m, cmd
	}
	q := fmt.Sprintf("Delete %d .BROKEN subvolumes?", len(msg.names))
	cmd := m.askConfirm(q, actionCleanBroken, restore.Request{})
	return m, cmd
}

func (m appModel) handleRestoreDone(msg restoreDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		cmd := tea.Batch(
			m.setStatus("Failed to restore snapshot!", statusLong),
			m.openResultModal(restoreFailureText(msg.err)),
			m.scanCmd(),
		)
		return m, cmd
	}
	m.rebootNeeded = true
	status := "Snapshot restored! Press H to reboot or continue working"
	if msg.res.CleanupErr != nil {
		status += " (backup kept at " + msg.res.Backup + ")"
	}
	cmd := tea.Batch(
		m.setStatus(status, statusLong),
		m.scanCmd(),
		m.askConfirm("Reboot system now?", actionReboot, restore.Request{}),
	)
	return m, cmd
}

func restoreFailureText(err error) string {
	lines := []string{
		"Failed to restore snapshot!",
		"",
		"outcome: " + restore.OutcomeOf(err).String(),
	}
	var rerr *restore.Error
	if errors.As(err, &rerr) {
		lines = append(lines, "step: "+string(rerr.Step))
		if rerr.Backup != "" {
			lines = append(lines, "backup: "+rerr.Backup)
		}
	}
	lines = append(lines, "error: "+err.Error())
	for _, h := range errors.GetAllHints(err) {
		lines = append(lines, "hint: "+h)
	}
	return strings.Join(lines, "\n")
}

func (m appModel) handleMaintenanceDone(msg maintenanceDoneMsg) (tea.Model, tea.Cmd) {
	var status string
	res := msg.res
	switch {
	case msg.op == actionPurge && !res.OK():
		status = "Error during purge operation!"
	case msg.op == actionPurge && res.Count == 0:
		status = "No old snapshots to purge"
	case msg.op == actionPurge:
		status = fmt.Sprintf("Purged %d old snapshots successfully", res.Count)
	case !res.OK():
		status = "Error during cleanup!"
	case res.Count == 0:
		status = "No .BROKEN subvolumes removed"
	default:
		status = fmt.Sprintf("Removed %d .BROKEN subvolumes", res.Count)
	}
	if n := len(res.Errors); n > 0 {
		status += fmt.Sprintf(" (%d failed)", n)
	}
	cmds := []tea.Cmd{m.setStatus(status, statusLong), m.scanCmd(), m.poolUsageCmd()}
	if text := maintenanceDetail(res); text != "" {
		cmds = append(cmds, m.openResultModal(text))
	}
	cmd := tea.Batch(cmds...)
	return m, cmd
}

// maintenanceDetail lists failures; a clean run needs no dialog.
func maintenanceDetail(res maintenance.Result) string {
	if res.OK() && len(res.Errors) == 0 {
		return ""
	}
	var lines []string
	if err := res.Err(); err != nil {
		lines = append(lines, "error: "+err.Error())
	}
	for _, e := range res.Errors {
		lines = append(lines, fmt.Sprintf("%s: %v", e.Name, e.Err))
	}
	return strings.Join(lines, "\n")
}
