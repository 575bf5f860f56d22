package session

import "fmt"

// Mode is whether the form targets a new incident or an existing one
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Edit:
		return "edit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// EditSession tracks the form mode and, in Edit mode, the incident being edited.
// The zero value is a Create session. Transitions return a new session and
// never modify the receiver.
type EditSession struct {
	mode     Mode
	targetID int64
}

func New() EditSession {
	return EditSession{mode: Create}
}

// BeginEdit moves the session to Edit mode for the incident with the given ID
func (s EditSession) BeginEdit(id int64) EditSession {
	return EditSession{mode: Edit, targetID: id}
}

// SubmitSucceeded returns the session that follows a successful submit. It is
// always a Create session.
func (s EditSession) SubmitSucceeded() EditSession {
	return New()
}

// Cancel abandons any edit in progress
func (s EditSession) Cancel() EditSession {
	return New()
}

func (s EditSession) Mode() Mode {
	return s.mode
}

func (s EditSession) Editing() bool {
	return s.mode == Edit
}

// TargetID returns the ID being edited; ok is false in Create mode
func (s EditSession) TargetID() (id int64, ok bool) {
	if s.mode != Edit {
		return 0, false
	}
	return s.targetID, true
}

// DraftID returns the ID a submitted draft should carry: nil in Create mode
func (s EditSession) DraftID() *int64 {
	if s.mode != Edit {
		return nil
	}
	id := s.targetID
	return &id
}

func (s EditSession) String() string {
	if s.mode == Edit {
		return fmt.Sprintf("edit(%d)", s.targetID)
	}
	return s.mode.String()
}
