package tui

import (
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/clcollins/incmgr/pkg/session"
	"github.com/clcollins/incmgr/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// createTestModel creates a model over a mock store with the initial load applied
func createTestModel(t *testing.T, mock *store.MockIncidentStore) model {
	t.Helper()

	m := InitialModel(mock, false).(model)
	m.markdownRenderer = nil

	msg := runRequest(m.ctrl, m.ctrl.Mount())()
	result, _ := m.Update(msg)
	return result.(model)
}

// finish runs a request command and feeds its message back into Update,
// following up any request Update returns
func finish(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	require.NotNil(t, cmd)

	msg := cmd()
	finished, ok := msg.(requestFinishedMsg)
	require.True(t, ok, "expected requestFinishedMsg, got %T", msg)

	result, next := m.Update(finished)
	m = result.(model)
	if next != nil {
		return finish(t, m, next)
	}
	return m
}

func typeInto(m model, s string) model {
	for _, r := range s {
		result, _ := m.Update(keyRunes(string(r)))
		m = result.(model)
	}
	return m
}

func testIncidents() []incident.Incident {
	return []incident.Incident{
		{ID: incident.ID(1), Name: "Fire", Description: "Kitchen", DateTime: "2024-01-01T00:00:00"},
		{ID: incident.ID(5), Name: "Flood", Description: "Basement", DateTime: "2024-01-02T00:00:00"},
	}
}

func TestInitialModelWithoutStore(t *testing.T) {
	m := InitialModel(nil, false).(model)
	assert.ErrorIs(t, m.err, errNoStore)
	assert.Nil(t, m.Init())

	// The error cannot be dismissed without a store
	result, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.ErrorIs(t, result.(model).err, errNoStore)
}

func TestInitialLoad(t *testing.T) {
	tests := []struct {
		name            string
		mock            *store.MockIncidentStore
		expectedRows    int
		expectedErrText string
	}{
		{
			name:         "rows are shown after the first refresh",
			mock:         &store.MockIncidentStore{Incidents: testIncidents()},
			expectedRows: 2,
		},
		{
			name:            "load failure is shown in the error line",
			mock:            &store.MockIncidentStore{ListErr: store.MockStatusError(store.ErrFetchFailed, http.StatusInternalServerError)},
			expectedRows:    0,
			expectedErrText: controller.MsgLoadFailed,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := InitialModel(test.mock, false).(model)
			require.NotNil(t, m.Init())
			assert.True(t, m.state().Loading, "Init starts the initial load")
			assert.Contains(t, m.View(), loadingIncidentsStatus)

			m = finish(t, m, runRequest(m.ctrl, m.ctrl.Refresh()))

			assert.False(t, m.state().Loading)
			assert.Len(t, m.table.Rows(), test.expectedRows)
			assert.Equal(t, test.expectedErrText, m.state().ErrMessage)
			if test.expectedErrText != "" {
				assert.Contains(t, m.View(), test.expectedErrText)
			}
		})
	}
}

func TestRefreshKey(t *testing.T) {
	mock := &store.MockIncidentStore{}
	m := createTestModel(t, mock)
	assert.Empty(t, m.table.Rows())

	mock.Incidents = testIncidents()
	result, cmd := m.Update(keyRunes("f"))
	m = result.(model)
	assert.Equal(t, loadingIncidentsStatus, m.status)

	m = finish(t, m, cmd)
	assert.Len(t, m.table.Rows(), 2)
	assert.Equal(t, "showing 2 incidents", m.status)
}

func TestDeleteKey(t *testing.T) {
	tests := []struct {
		name         string
		deleteErr    error
		expectedRows int
		expectedErr  string
	}{
		{
			name:         "highlighted incident is removed without a reload",
			expectedRows: 1,
		},
		{
			name:         "status failure leaves the row",
			deleteErr:    store.MockStatusError(store.ErrDeleteFailed, http.StatusInternalServerError),
			expectedRows: 2,
			expectedErr:  controller.MsgDeleteFailed,
		},
		{
			name:         "transport failure leaves the row",
			deleteErr:    store.MockTransportError(store.ErrDeleteFailed),
			expectedRows: 2,
			expectedErr:  controller.MsgDeleteNetwork,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mock := &store.MockIncidentStore{Incidents: testIncidents(), DeleteErr: test.deleteErr}
			m := createTestModel(t, mock)
			m.table.SetCursor(1)

			result, cmd := m.Update(keyRunes("d"))
			m = finish(t, result.(model), cmd)

			if test.deleteErr == nil {
				assert.Equal(t, []int64{5}, mock.Deleted)
			} else {
				assert.Empty(t, mock.Deleted)
			}
			assert.Len(t, m.table.Rows(), test.expectedRows)
			assert.Equal(t, test.expectedErr, m.state().ErrMessage)
			assert.Equal(t, []string{"ListAll", "Delete"}, mock.Calls)
		})
	}
}

func TestDeleteKeyWithoutRows(t *testing.T) {
	mock := &store.MockIncidentStore{}
	m := createTestModel(t, mock)

	_, cmd := m.Update(keyRunes("d"))
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"ListAll"}, mock.Calls)
}

func TestCreateFromForm(t *testing.T) {
	mock := &store.MockIncidentStore{}
	m := createTestModel(t, mock)

	result, _ := m.Update(keyRunes("n"))
	m = result.(model)
	require.True(t, m.formOpen)
	assert.Equal(t, session.Create, m.state().Session.Mode())

	// q is typed, not a quit
	m = typeInto(m, "quake")
	result, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = result.(model)
	m = typeInto(m, "shaking")

	assert.Equal(t, "quake", m.state().Form.Name)
	assert.Equal(t, "shaking", m.state().Form.Description)

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = result.(model)
	assert.Equal(t, savingIncidentStatus, m.status)

	m = finish(t, m, cmd)
	assert.False(t, m.formOpen, "form closes after a successful save")
	assert.Equal(t, "showing 1 incidents", m.status, "the follow-up refresh has finished")
	require.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "quake", m.table.Rows()[0][1])
	assert.Equal(t, []string{"ListAll", "Create", "ListAll"}, mock.Calls)
}

func TestSubmitInvalidForm(t *testing.T) {
	mock := &store.MockIncidentStore{}
	m := createTestModel(t, mock)

	result, _ := m.Update(keyRunes("n"))
	m = typeInto(result.(model), strings.Repeat("x", 51))

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = result.(model)

	assert.Nil(t, cmd, "no request for an invalid form")
	assert.True(t, m.formOpen)
	assert.Equal(t, invalidFormStatus, m.status)
	assert.NotEmpty(t, m.state().Form.NameErr)
	assert.NotEmpty(t, m.state().Form.DescriptionErr)
	assert.Contains(t, m.View(), m.state().Form.DescriptionErr)
	assert.Equal(t, []string{"ListAll"}, mock.Calls)
}

func TestEditFromTable(t *testing.T) {
	mock := &store.MockIncidentStore{Incidents: testIncidents()}
	m := createTestModel(t, mock)
	m.table.SetCursor(1)

	result, _ := m.Update(keyRunes("e"))
	m = result.(model)
	require.True(t, m.formOpen)
	assert.Equal(t, "Flood", m.nameInput.Value(), "form is filled from the incident")
	assert.Equal(t, "Basement", m.descriptionInput.Value())
	id, editing := m.state().Session.TargetID()
	assert.True(t, editing)
	assert.Equal(t, int64(5), id)
	assert.Contains(t, m.View(), "Editing incident 5")

	m = typeInto(m, "ed")
	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = finish(t, result.(model), cmd)

	require.Len(t, mock.Updated, 1)
	assert.Equal(t, "Flooded", mock.Updated[0].Name)
	assert.Equal(t, session.Create, m.state().Session.Mode())
	assert.False(t, m.formOpen)
}

func TestSubmitFailureKeepsForm(t *testing.T) {
	mock := &store.MockIncidentStore{
		Incidents: testIncidents(),
		UpdateErr: store.MockTransportError(store.ErrSubmitFailed),
	}
	m := createTestModel(t, mock)

	result, _ := m.Update(keyRunes("e"))
	m = result.(model)
	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = finish(t, result.(model), cmd)

	assert.True(t, m.formOpen)
	assert.Empty(t, m.state().ErrMessage, "submit failures are not shown in the error line")
	assert.True(t, m.state().Session.Editing())
	assert.Equal(t, "Fire", m.nameInput.Value())
}

func TestCancelForm(t *testing.T) {
	mock := &store.MockIncidentStore{Incidents: testIncidents()}
	m := createTestModel(t, mock)

	result, _ := m.Update(keyRunes("e"))
	m = result.(model)
	require.True(t, m.state().Session.Editing())

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = result.(model)
	assert.Nil(t, cmd)
	assert.False(t, m.formOpen)
	assert.Equal(t, session.Create, m.state().Session.Mode())
	assert.Equal(t, controller.Form{}, m.state().Form)
	assert.Empty(t, m.nameInput.Value())
	assert.True(t, m.table.Focused())
}

func TestSaveFinishesAfterNewFormOpened(t *testing.T) {
	mock := &store.MockIncidentStore{Incidents: testIncidents()}
	m := createTestModel(t, mock)

	result, _ := m.Update(keyRunes("e"))
	m = typeInto(result.(model), "!")
	result, saveCmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = result.(model)
	require.NotNil(t, saveCmd)

	// Leave the saving form and start a new incident before the save returns
	result, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	result, _ = result.(model).Update(keyRunes("n"))
	m = typeInto(result.(model), "Storm")

	m = finish(t, m, saveCmd)

	require.Len(t, mock.Updated, 1)
	assert.Equal(t, "Fire!", mock.Updated[0].Name)
	assert.True(t, m.formOpen, "the new form stays open")
	assert.Equal(t, "Storm", m.nameInput.Value())
	assert.Equal(t, "Storm", m.state().Form.Name)
	assert.Equal(t, session.Create, m.state().Session.Mode())
}

func TestViewIncident(t *testing.T) {
	m := createTestModel(t, &store.MockIncidentStore{Incidents: testIncidents()})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	rendered, ok := msg.(renderedIncidentMsg)
	require.True(t, ok)
	assert.NoError(t, rendered.err)
	assert.Contains(t, rendered.content, "# 1 - Fire")

	result, _ := m.Update(rendered)
	m = result.(model)
	assert.True(t, m.viewingIncident)

	result, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, result.(model).viewingIncident)
}

func TestQuit(t *testing.T) {
	m := createTestModel(t, &store.MockIncidentStore{})

	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestErrMsg(t *testing.T) {
	m := createTestModel(t, &store.MockIncidentStore{})

	result, _ := m.Update(errMsg{store.ErrMockError})
	m = result.(model)
	assert.ErrorIs(t, m.err, store.ErrMockError)
	assert.Contains(t, m.View(), "ERROR")

	result, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.NoError(t, result.(model).err)
}

func TestLateRefreshAfterDelete(t *testing.T) {
	tests := []struct {
		name         string
		ordering     controller.Ordering
		expectedRows int
	}{
		{name: "last resolved wins", ordering: controller.OrderingLastResolved, expectedRows: 2},
		{name: "strict ordering", ordering: controller.OrderingStrict, expectedRows: 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mock := &store.MockIncidentStore{Incidents: testIncidents()}
			m := InitialModel(mock, false, controller.WithOrdering(test.ordering)).(model)
			m = finish(t, m, runRequest(m.ctrl, m.ctrl.Mount()))

			// The refresh reads the list before the delete reaches the store
			_, refreshCmd := m.Update(keyRunes("f"))
			refreshMsg := refreshCmd()
			result, deleteCmd := m.Update(keyRunes("d"))
			m = result.(model)
			deleteMsg := deleteCmd()

			result, _ = m.Update(deleteMsg)
			result, _ = result.(model).Update(refreshMsg)
			m = result.(model)

			assert.Len(t, m.table.Rows(), test.expectedRows)
		})
	}
}
