package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/controller"
)

// errMsgHandler is the message handler for the errMsg message
func (m model) errMsgHandler(msg errMsg) (tea.Model, tea.Cmd) {
	debug("errMsgHandler", "error", msg.err)
	m.setStatus(msg.Error())
	m.err = msg.err
	return m, nil
}

// windowSizeMsgHandler resizes the tui according to the new terminal window size
func (m model) windowSizeMsgHandler(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	debug("windowSizeMsgHandler", "width", msg.Width, "height", msg.Height)
	windowSize = msg

	borderEdges := 2 + 10
	width := msg.Width - borderEdges

	m.help.Width = width
	m.table.SetColumns(resizeColumns(width))

	// header, error line, form and help
	height := max(msg.Height-14, 3)
	m.table.SetHeight(height)
	m.incidentViewer.Width = width
	m.incidentViewer.Height = height

	return m, nil
}

// requestFinishedMsgHandler applies a finished request to the controller
// state and starts any follow-up request
func (m model) requestFinishedMsgHandler(msg requestFinishedMsg) (tea.Model, tea.Cmd) {
	res := msg.result
	debug("requestFinishedMsgHandler", "seq", res.Seq, "op", res.Op, "error", res.Err)

	if m.ctrl == nil {
		return m, nil
	}

	superseded := m.ctrl.Superseded(res)
	follow, ok := m.ctrl.Finish(res)
	m.syncTable()

	switch res.Op {
	case controller.OpRefresh:
		if res.Err == nil {
			m.setStatus(fmt.Sprintf("showing %d incidents", len(m.state().Incidents)))
		} else {
			m.setStatus("")
		}

	case controller.OpDelete:
		if res.Err == nil {
			m.setStatus(fmt.Sprintf("incident %d deleted", res.ID))
		} else {
			m.setStatus("")
		}

	case controller.OpCreate, controller.OpUpdate:
		if res.Err != nil {
			// The form stays open with the user's input for another try
			m.setStatus("")
			return m, nil
		}
		// A form opened while saving keeps its input
		if !superseded {
			m.closeForm()
		}
		m.setStatus(savedIncidentStatus)
	}

	if ok {
		return m, runRequest(m.ctrl, follow)
	}
	return m, nil
}

func (m model) keyMsgHandler(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debug("keyMsgHandler", "tea.KeyMsg", msg.String())

	// Letters are typed into the form, so the form handles its own quit key
	if m.formOpen && m.err == nil {
		return switchFormFocusMode(m, msg)
	}

	if key.Matches(msg, defaultKeyMap.Quit) {
		return m, tea.Quit
	}

	switch {
	case m.err != nil:
		return switchErrorFocusMode(m, msg)

	case m.viewingIncident:
		return switchIncidentFocusMode(m, msg)

	default:
		return switchTableFocusMode(m, msg)
	}
}

// switchTableFocusMode is the main mode for the application
func switchTableFocusMode(m model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debug("switchTableFocusMode")

	switch {
	case key.Matches(msg, defaultKeyMap.Help):
		m.toggleHelp()

	case key.Matches(msg, defaultKeyMap.Up):
		m.table.MoveUp(1)

	case key.Matches(msg, defaultKeyMap.Down):
		m.table.MoveDown(1)

	case key.Matches(msg, defaultKeyMap.Top):
		m.table.GotoTop()

	case key.Matches(msg, defaultKeyMap.Bottom):
		m.table.GotoBottom()

	case key.Matches(msg, defaultKeyMap.Back):
		m.setStatus("")

	case key.Matches(msg, defaultKeyMap.Refresh):
		m.setStatus(loadingIncidentsStatus)
		return m, runRequest(m.ctrl, m.ctrl.Refresh())

	case key.Matches(msg, defaultKeyMap.Enter):
		id, ok := highlightedID(m.table)
		if !ok {
			return m, nil
		}
		i, found := m.state().Find(id)
		if !found {
			return m, nil
		}
		return m, renderIncident(m.markdownRenderer, i)

	case key.Matches(msg, defaultKeyMap.New):
		m.ctrl.CancelEdit()
		return m, m.openForm()

	case key.Matches(msg, defaultKeyMap.Edit):
		id, ok := highlightedID(m.table)
		if !ok || !m.ctrl.BeginEditID(id) {
			return m, nil
		}
		m.setStatus(fmt.Sprintf("editing incident %d", id))
		return m, m.openForm()

	case key.Matches(msg, defaultKeyMap.Delete):
		id, ok := highlightedID(m.table)
		if !ok {
			return m, nil
		}
		m.setStatus(fmt.Sprintf("deleting incident %d...", id))
		return m, runRequest(m.ctrl, m.ctrl.Delete(id))
	}

	return m, nil
}

// switchFormFocusMode sends keystrokes to the focused input and mirrors the
// input values into the controller form
func switchFormFocusMode(m model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debug("switchFormFocusMode", "field", m.focusedField)

	switch {
	case key.Matches(msg, formKeyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, formKeyMap.Cancel):
		m.ctrl.CancelEdit()
		m.closeForm()
		m.setStatus("")
		return m, nil

	case key.Matches(msg, formKeyMap.Next), key.Matches(msg, formKeyMap.Prev):
		return m, m.nextField()

	case key.Matches(msg, formKeyMap.Submit):
		req, ok := m.ctrl.Submit()
		if !ok {
			m.setStatus(invalidFormStatus)
			return m, nil
		}
		m.setStatus(savingIncidentStatus)
		return m, runRequest(m.ctrl, req)
	}

	var cmd tea.Cmd
	if m.focusedField == controller.FieldName {
		m.nameInput, cmd = m.nameInput.Update(msg)
		m.ctrl.SetField(controller.FieldName, m.nameInput.Value())
	} else {
		m.descriptionInput, cmd = m.descriptionInput.Update(msg)
		m.ctrl.SetField(controller.FieldDescription, m.descriptionInput.Value())
	}
	return m, cmd
}

func switchIncidentFocusMode(m model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debug("switchIncidentFocusMode")

	switch {
	case key.Matches(msg, incidentViewKeyMap.Help):
		m.toggleHelp()
		return m, nil

	// This returns to the table view
	case key.Matches(msg, incidentViewKeyMap.Back):
		m.viewingIncident = false
		return m, nil
	}

	var cmd tea.Cmd
	m.incidentViewer, cmd = m.incidentViewer.Update(msg)
	return m, cmd
}

func switchErrorFocusMode(m model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	debug("switchErrorFocusMode")

	switch {
	case key.Matches(msg, errorViewKeyMap.Back):
		// Without a store there is nothing to go back to
		if errors.Is(m.err, errNoStore) {
			log.Warn("switchErrorFocusMode", "error", m.err)
			return m, nil
		}
		m.err = nil
	}
	return m, nil
}
