package controller

import (
	"errors"

	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/clcollins/incmgr/pkg/session"
	"github.com/clcollins/incmgr/pkg/store"
)

// Messages shown in the global error slot
const (
	MsgLoadFailed    = "failed to load incident list, please retry later"
	MsgDeleteFailed  = "failed to delete incident, please retry later"
	MsgDeleteNetwork = "network error while deleting incident, please check your connection"
)

// Field identifies a form input
type Field int

const (
	FieldName Field = iota
	FieldDescription
)

// Form holds the form inputs and their inline validation messages
type Form struct {
	Name        string
	Description string

	NameErr        string
	DescriptionErr string
}

// State is everything the view renders. Transitions are methods with value
// receivers that return the next State; none of them modify the receiver or
// the slices it refers to.
type State struct {
	Incidents  []incident.Incident
	Loading    bool
	ErrMessage string
	Form       Form
	Session    session.EditSession
}

// RefreshStarted is applied when the view mounts; no list is shown until the
// first refresh resolves
func (s State) RefreshStarted() State {
	s.Loading = true
	return s
}

// RefreshSucceeded replaces the whole list and clears the error message
func (s State) RefreshSucceeded(incidents []incident.Incident) State {
	s.Incidents = incidents
	s.Loading = false
	s.ErrMessage = ""
	return s
}

// RefreshFailed stops loading and keeps whatever list was already held
func (s State) RefreshFailed(err error) State {
	s.Loading = false
	s.ErrMessage = MsgLoadFailed
	return s
}

// RefreshDiscarded stops loading without touching the list
func (s State) RefreshDiscarded() State {
	s.Loading = false
	return s
}

// DeleteSucceeded removes every incident with the given ID from the current
// snapshot. The remaining incidents are carried over unchanged.
func (s State) DeleteSucceeded(id int64) State {
	kept := make([]incident.Incident, 0, len(s.Incidents))
	for _, i := range s.Incidents {
		if !i.Is(id) {
			kept = append(kept, i)
		}
	}
	s.Incidents = kept
	return s
}

// DeleteFailed sets the error message and leaves the list as it is
func (s State) DeleteFailed(err error) State {
	if errors.Is(err, store.ErrTransport) {
		s.ErrMessage = MsgDeleteNetwork
	} else {
		s.ErrMessage = MsgDeleteFailed
	}
	return s
}

// FieldsValidated records the inline messages for a submit attempt; nil errors clear them
func (s State) FieldsValidated(nameErr, descriptionErr error) State {
	s.Form.NameErr = errorText(nameErr)
	s.Form.DescriptionErr = errorText(descriptionErr)
	return s
}

// SubmitSucceeded clears the form and ends any edit in progress
func (s State) SubmitSucceeded() State {
	s.Form = Form{}
	s.Session = s.Session.SubmitSucceeded()
	return s
}

// SubmitFailed changes nothing so the user can retry with the same input and mode
func (s State) SubmitFailed(err error) State {
	return s
}

// BeginEdit switches to Edit mode for inc and fills the form from it
func (s State) BeginEdit(inc incident.Incident) State {
	if !inc.HasID() {
		return s
	}
	s.Session = s.Session.BeginEdit(*inc.ID)
	s.Form = Form{Name: inc.Name, Description: inc.Description}
	return s
}

// CancelEdit returns to Create mode with an empty form
func (s State) CancelEdit() State {
	s.Session = s.Session.Cancel()
	s.Form = Form{}
	return s
}

// SetField updates a form input
func (s State) SetField(f Field, value string) State {
	switch f {
	case FieldName:
		s.Form.Name = value
	case FieldDescription:
		s.Form.Description = value
	}
	return s
}

// Find returns the incident with the given ID from the current list
func (s State) Find(id int64) (incident.Incident, bool) {
	for _, i := range s.Incidents {
		if i.Is(id) {
			return i, true
		}
	}
	return incident.Incident{}, false
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
