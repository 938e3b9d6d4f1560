package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"btrbk-restore/internal/restore"
)

type confirmAction int

const (
	actionNone confirmAction = iota
	actionRestore
	actionReboot
	actionPurge
	actionCleanBroken
	actionSnapshot
)

func (a confirmAction) cancelledStatus() string {
	switch a {
	case actionRestore:
		return "Restoration cancelled"
	case actionReboot:
		return "Reboot cancelled"
	case actionPurge:
		return "Purge cancelled"
	case actionCleanBroken:
		return "Cleanup cancelled"
	case actionSnapshot:
		return "Snapshot creation cancelled"
	default:
		return "Cancelled"
	}
}

type confirmState struct {
	question string
	action   confirmAction
	request  restore.Request
}

// askConfirm opens a yes/no dialog for action. With confirm_actions off the
// action runs at once, except for reboot which always asks.
func (m *appModel) askConfirm(question string, action confirmAction, req restore.Request) tea.Cmd {
	if !m.cfg.ConfirmActions && action != actionReboot {
		return m.runAction(action, req)
	}
	m.modalActive = true
	m.modalKind = modalConfirm
	m.confirm = confirmState{question: question, action: action, request: req}
	return nil
}

func (m appModel) updateConfirm(key string) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch key {
	case "y", "Y":
		m.closeModal()
		cmd := m.runAction(c.action, c.request)
		return m, cmd
	case "n", "N", "esc":
		m.closeModal()
		cmd := m.setStatus(c.action.cancelledStatus(), statusShort)
		return m, cmd
	}
	return m, nil
}

type editState struct {
	key     string
	label   string
	current string
	input   textinput.Model
}

func (m *appModel) openEdit(key, label, current string) tea.Cmd {
	in := textinput.New()
	in.Prompt = "New: "
	in.Placeholder = current
	in.CharLimit = 4096
	in.Width = panelInnerWidth(m.modalWidth()) - len(in.Prompt) - 1
	in.Focus()
	m.edit = editState{key: key, label: label, current: current, input: in}
	m.modalActive = true
	m.modalKind = modalEdit
	return textinput.Blink
}

func (m appModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		cmd := m.setStatus("Edit cancelled", statusShort)
		return m, cmd
	case "enter":
		key := m.edit.key
		value := strings.TrimSpace(m.edit.input.Value())
		m.closeModal()
		if value == "" {
			cmd := m.setStatus("No changes made", statusShort)
			return m, cmd
		}
		if err := m.cfg.Set(key, value); err != nil {
			cmd := m.setStatus("Error: "+err.Error(), statusShort)
			return m, cmd
		}
		cmd := m.saveConfigCmd("Updated " + key)
		return m, cmd
	}
	var cmd tea.Cmd
	m.edit.input, cmd = m.edit.input.Update(msg)
	return m, cmd
}
