package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	upArrow   = "↑"
	downArrow = "↓"
)

func (m model) Init() tea.Cmd {
	debug("Init")
	if m.ctrl == nil {
		return nil
	}

	return tea.Batch(
		m.spinner.Tick,
		runRequest(m.ctrl, m.ctrl.Mount()),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.windowSizeMsgHandler(msg)

	case tea.KeyMsg:
		return m.keyMsgHandler(msg)

	case errMsg:
		return m.errMsgHandler(msg)

	case spinner.TickMsg:
		// Only keep ticking while a load is in progress
		if !m.state().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case requestFinishedMsg:
		return m.requestFinishedMsgHandler(msg)

	case renderedIncidentMsg:
		if msg.err != nil {
			return m, func() tea.Msg { return errMsg{msg.err} }
		}
		m.incidentViewer.SetContent(msg.content)
		m.incidentViewer.GotoTop()
		m.viewingIncident = true
		return m, nil
	}

	return m, nil
}
