package tui

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/incident"
)

const (
	loadingIncidentsStatus = "loading incidents..."
	savingIncidentStatus   = "saving incident..."
	savedIncidentStatus    = "incident saved"
	invalidFormStatus      = "please correct the highlighted fields"
)

// Type and function for capturing error messages with tea.Msg
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// requestFinishedMsg carries a controller result back to Update
type requestFinishedMsg struct {
	result controller.Result
}

// runRequest executes req off the Update loop. Only the store is touched
// here; the result is applied when Update receives the message.
func runRequest(c *controller.Controller, req controller.Request) tea.Cmd {
	return func() tea.Msg {
		debug("runRequest", "seq", req.Seq, "op", req.Op)
		return requestFinishedMsg{c.Execute(context.Background(), req)}
	}
}

type renderedIncidentMsg struct {
	content string
	err     error
}

func renderIncident(renderer *glamour.TermRenderer, i incident.Incident) tea.Cmd {
	return func() tea.Msg {
		t, err := incidentMarkdown(i)
		if err != nil {
			return renderedIncidentMsg{err: err}
		}

		// Without a renderer the raw markdown is shown
		if renderer == nil {
			return renderedIncidentMsg{content: t}
		}

		content, err := renderer.Render(t)
		return renderedIncidentMsg{content, err}
	}
}

func incidentMarkdown(i incident.Incident) (string, error) {
	tmpl, err := template.New("incident").Parse(incidentTemplate)
	if err != nil {
		return "", fmt.Errorf("tui.incidentMarkdown(): %w", err)
	}

	o := new(bytes.Buffer)
	if err := tmpl.Execute(o, i); err != nil {
		return "", fmt.Errorf("tui.incidentMarkdown(): %w", err)
	}

	return o.String(), nil
}

const incidentTemplate = `
# {{ .IDString }} - {{ .Name }}

* Reported: {{ if .DateTime }}{{ .DateTime }}{{ else }}_unknown_{{ end }}

## Description

{{ .Description }}
`
