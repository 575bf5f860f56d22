package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/clcollins/incmgr/pkg/incident"
)

const (
	initialTableHeight = 20
	initialTableWidth  = 106

	// Column [0] is the incident ID
	idColumn = 0
)

var incidentListTableColumns = []table.Column{
	{Title: "ID", Width: 8},
	{Title: "Name", Width: 24},
	{Title: "Description", Width: 52},
	{Title: "Date", Width: 20},
}

func incidentRows(incidents []incident.Incident) []table.Row {
	rows := make([]table.Row, 0, len(incidents))
	for _, i := range incidents {
		rows = append(rows, table.Row{i.IDString(), i.Name, i.Description, i.DateTime})
	}
	return rows
}

// highlightedID returns the ID of the highlighted row; ok is false if no row is highlighted
func highlightedID(t table.Model) (id int64, ok bool) {
	row := t.SelectedRow()
	if row == nil {
		return 0, false
	}

	id, err := incident.ParseID(row[idColumn])
	if err != nil {
		debug("highlightedID", "row", row, "error", err)
		return 0, false
	}
	return id, true
}

// resizeColumns spreads the table over the given width, giving the ID and
// date columns a fixed share
func resizeColumns(width int) []table.Column {
	eighth := width / 8
	return []table.Column{
		{Title: "ID", Width: max(eighth/2, 4)},
		{Title: "Name", Width: eighth * 2},
		{Title: "Description", Width: eighth*4 - eighth/2},
		{Title: "Date", Width: max(eighth, 19)},
	}
}
