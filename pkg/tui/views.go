package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/session"
	"github.com/clcollins/incmgr/pkg/tui/style"
)

const dot = "•"

var windowSize tea.WindowSizeMsg

func (m model) View() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())

	if m.err != nil {
		log.Debug("View", "error", m.err)
		return s.String() + renderError(m.err)
	}

	state := m.state()
	if state.ErrMessage != "" {
		s.WriteString(style.ErrMessage.Render(state.ErrMessage))
		s.WriteString("\n")
	}

	switch {
	case m.viewingIncident:
		s.WriteString(m.incidentViewer.View())

	case state.Loading:
		s.WriteString(style.Status.Render(statusArea(loadingIncidentsStatus, true, m.spinner.View())))

	default:
		s.WriteString(style.TableContainer.Render(m.table.View()))
	}

	if m.formOpen {
		s.WriteString("\n")
		s.WriteString(m.renderForm(state.Form))
	}

	s.WriteString("\n")
	s.WriteString(style.Help.Render(m.help.View(m.activeKeyMap())))

	return style.Main.Render(s.String())
}

// activeKeyMap returns the keymap for the current focus mode, for the help view
func (m model) activeKeyMap() help.KeyMap {
	switch {
	case m.err != nil:
		return errorViewKeyMap
	case m.formOpen:
		return formKeyMap
	case m.viewingIncident:
		return incidentViewKeyMap
	default:
		return defaultKeyMap
	}
}

func (m model) renderHeader() string {
	status := statusArea(m.status, false, "")
	mode := modeArea(m.state().Session)

	width := windowSize.Width - lipgloss.Width(mode) - style.Padded.GetHorizontalPadding()
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		style.Padded.Width(max(width, 0)).Render(status),
		style.Mode.Render(mode),
	) + "\n"
}

func (m model) renderForm(form controller.Form) string {
	var s strings.Builder

	s.WriteString(m.nameInput.View())
	s.WriteString("\n")
	if form.NameErr != "" {
		s.WriteString(style.FieldError.Render(form.NameErr))
		s.WriteString("\n")
	}

	s.WriteString(m.descriptionInput.View())
	if form.DescriptionErr != "" {
		s.WriteString("\n")
		s.WriteString(style.FieldError.Render(form.DescriptionErr))
	}

	return style.Form.Render(s.String())
}

func renderError(err error) string {
	var s strings.Builder

	s.WriteString(dot)
	s.WriteString("ERROR")
	s.WriteString(dot)
	s.WriteString("\n\n")
	s.WriteString(err.Error())
	s.WriteString("\n")
	s.WriteString(help.New().View(errorViewKeyMap))

	return style.Error.Render(s.String())
}

func statusArea(s string, showSpinner bool, spinnerView string) string {
	if showSpinner {
		return fmt.Sprintf("%s %s", spinnerView, s)
	}
	return fmt.Sprintf("> %s", strings.TrimSuffix(s, "\n"))
}

func modeArea(s session.EditSession) string {
	if id, ok := s.TargetID(); ok {
		return fmt.Sprintf("Editing incident %d", id)
	}
	return "New incident"
}
