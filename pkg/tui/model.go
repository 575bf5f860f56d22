package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/store"
	"github.com/clcollins/incmgr/pkg/tui/style"
)

var errNoStore = errors.New("no incident store configured")

type model struct {
	err error

	ctrl *controller.Controller

	table table.Model

	// The form is open while formOpen is set; focusedField says which input
	// receives keystrokes
	formOpen         bool
	focusedField     controller.Field
	nameInput        textinput.Model
	descriptionInput textinput.Model

	// This is a hack since viewport.Model doesn't have a Focused() method
	viewingIncident  bool
	incidentViewer   viewport.Model
	markdownRenderer *glamour.TermRenderer

	help    help.Model
	spinner spinner.Model

	status string
	debug  bool
}

// InitialModel builds the TUI model around a controller for s. Controller
// options (ordering, clock) are passed through.
func InitialModel(s store.IncidentStore, debug bool, opts ...controller.Option) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = style.Spinner

	// Create markdown renderer once - reusing it is much faster than creating new ones
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		log.Error("InitialModel", "failed to create markdown renderer", err)
		// Continue without renderer - rendering will fall back to plain text
		renderer = nil
	}

	m := model{
		table:            newTableWithStyles(),
		nameInput:        newTextInput("Name: "),
		descriptionInput: newTextInput("Description: "),
		incidentViewer:   newIncidentViewer(),
		markdownRenderer: renderer,
		help:             newHelp(),
		spinner:          sp,
		debug:            debug,
	}

	// Init() cannot report an error before the first Update, so a missing
	// store is stored here and shown by the error view
	if s == nil {
		log.Error("InitialModel", "error", errNoStore)
		m.err = errNoStore
		return m
	}

	m.ctrl = controller.New(s, opts...)
	log.Debug("InitialModel", "ordering", m.ctrl.Ordering(), "debug", debug)
	return m
}

func (m *model) setStatus(msg string) {
	log.Info("setStatus", "status", msg)
	m.status = msg
}

func (m *model) toggleHelp() {
	m.help.ShowAll = !m.help.ShowAll
}

// state returns the controller state, or the zero state when there is no controller
func (m model) state() controller.State {
	if m.ctrl == nil {
		return controller.State{}
	}
	return m.ctrl.State()
}

// openForm shows the form filled from the controller state and focuses the name input
func (m *model) openForm() tea.Cmd {
	form := m.state().Form
	m.nameInput.SetValue(form.Name)
	m.descriptionInput.SetValue(form.Description)

	m.formOpen = true
	m.table.Blur()
	return m.focusField(controller.FieldName)
}

func (m *model) closeForm() {
	m.formOpen = false
	m.nameInput.Blur()
	m.descriptionInput.Blur()
	m.nameInput.Reset()
	m.descriptionInput.Reset()
	m.table.Focus()
}

func (m *model) focusField(f controller.Field) tea.Cmd {
	m.focusedField = f
	if f == controller.FieldName {
		m.descriptionInput.Blur()
		return m.nameInput.Focus()
	}
	m.nameInput.Blur()
	return m.descriptionInput.Focus()
}

func (m *model) nextField() tea.Cmd {
	if m.focusedField == controller.FieldName {
		return m.focusField(controller.FieldDescription)
	}
	return m.focusField(controller.FieldName)
}

// syncTable replaces the table rows with the controller's incident list
func (m *model) syncTable() {
	rows := incidentRows(m.state().Incidents)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func newTableWithStyles() table.Model {
	t := table.New(
		table.WithColumns(incidentListTableColumns),
		table.WithFocused(true),
		table.WithHeight(initialTableHeight),
	)
	t.SetStyles(style.Table)
	return t
}

func newTextInput(prompt string) textinput.Model {
	i := textinput.New()
	i.Prompt = prompt
	i.PromptStyle = style.FormLabel
	i.Width = 50
	return i
}

func newHelp() help.Model {
	h := help.New()
	h.ShowAll = false
	return h
}

func newIncidentViewer() viewport.Model {
	vp := viewport.New(initialTableWidth, initialTableHeight)
	vp.Style = style.IncidentViewer
	return vp
}
