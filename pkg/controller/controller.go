package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/clcollins/incmgr/pkg/store"
)

// Ordering decides what happens when list-changing results resolve out of order
type Ordering int

const (
	// OrderingLastResolved applies every result as it arrives; the last one to
	// resolve wins, so a slow refresh can bring back a row that was just deleted
	OrderingLastResolved Ordering = iota

	// OrderingStrict discards refresh results older than the newest applied
	// list change
	OrderingStrict
)

func (o Ordering) String() string {
	if o == OrderingStrict {
		return "strict"
	}
	return "last-resolved"
}

// Op is the store operation behind a Request
type Op int

const (
	OpRefresh Op = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpRefresh:
		return "refresh"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

var ErrInvalidDraft = errors.New("incident failed validation")

// Request is a store operation waiting to run. Seq increases with every
// request the controller hands out.
type Request struct {
	Seq      uint64
	Op       Op
	ID       int64
	Incident incident.Incident

	// FormGen is the form generation a submit was made from
	FormGen uint64
}

// Result is the outcome of running a Request
type Result struct {
	Request
	Incidents []incident.Incident
	Err       error
}

type Option func(*Controller)

func WithOrdering(o Ordering) Option {
	return func(c *Controller) { c.ordering = o }
}

// WithClock sets the time source used to stamp submitted incidents
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithState sets the initial state
func WithState(s State) Option {
	return func(c *Controller) { c.state = s }
}

// Controller owns the incident list state for one view. Start methods
// (Mount, Refresh, Submit, Delete) and Finish must be called from a single
// goroutine; Execute only touches the store and may run anywhere.
type Controller struct {
	store    store.IncidentStore
	ordering Ordering
	now      func() time.Time

	seq        uint64
	appliedSeq uint64
	state      State

	// formGen changes whenever the form is opened for another incident or
	// cancelled
	formGen uint64
}

func New(s store.IncidentStore, opts ...Option) *Controller {
	c := &Controller{
		store:    s,
		ordering: OrderingLastResolved,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Ordering() Ordering {
	return c.ordering
}

func (c *Controller) next(op Op) Request {
	c.seq++
	return Request{Seq: c.seq, Op: op}
}

// Mount marks the list as loading and returns the initial refresh
func (c *Controller) Mount() Request {
	c.state = c.state.RefreshStarted()
	return c.Refresh()
}

// Refresh returns a request to reload the whole collection
func (c *Controller) Refresh() Request {
	req := c.next(OpRefresh)
	log.Debug("controller.Refresh()", "seq", req.Seq)
	return req
}

// Submit validates the form. If either field is invalid the inline messages
// are set and ok is false; nothing must be sent. Otherwise it returns a create
// or update request depending on the edit session.
func (c *Controller) Submit() (req Request, ok bool) {
	form := c.state.Form
	nameErr, descriptionErr := incident.ValidateFields(form.Name, form.Description)
	c.state = c.state.FieldsValidated(nameErr, descriptionErr)
	if nameErr != nil || descriptionErr != nil {
		log.Debug("controller.Submit(): rejected", "name_error", nameErr, "description_error", descriptionErr)
		return Request{}, false
	}

	op := OpCreate
	if c.state.Session.Editing() {
		op = OpUpdate
	}

	req = c.next(op)
	req.FormGen = c.formGen
	req.Incident = incident.NewDraft(c.state.Session.DraftID(), form.Name, form.Description, c.now())
	log.Debug("controller.Submit()", "seq", req.Seq, "op", req.Op, "session", c.state.Session)
	return req, true
}

// Delete returns a request to delete the incident with the given ID. The
// request is made even if the ID is not in the current list.
func (c *Controller) Delete(id int64) Request {
	req := c.next(OpDelete)
	req.ID = id
	log.Debug("controller.Delete()", "seq", req.Seq, "id", id)
	return req
}

// Execute runs req against the store. It does not read or write the state.
func (c *Controller) Execute(ctx context.Context, req Request) Result {
	res := Result{Request: req}

	switch req.Op {
	case OpRefresh:
		res.Incidents, res.Err = c.store.ListAll(ctx)
	case OpCreate:
		res.Err = c.store.Create(ctx, req.Incident)
	case OpUpdate:
		res.Err = c.store.Update(ctx, req.Incident)
	case OpDelete:
		res.Err = c.store.Delete(ctx, req.ID)
	default:
		res.Err = fmt.Errorf("controller.Execute(): unknown operation %v", req.Op)
	}

	return res
}

// Finish applies a result to the state. After a successful submit it returns
// the follow-up refresh request and true.
func (c *Controller) Finish(res Result) (Request, bool) {
	switch res.Op {
	case OpRefresh:
		switch {
		case c.ordering == OrderingStrict && res.Seq < c.appliedSeq:
			log.Debug("controller.Finish(): discarding stale refresh", "seq", res.Seq, "applied", c.appliedSeq, "error", res.Err)
			c.state = c.state.RefreshDiscarded()
		case res.Err != nil:
			log.Warn("controller.Finish(): refresh failed", "seq", res.Seq, "error", res.Err)
			c.state = c.state.RefreshFailed(res.Err)
		default:
			c.state = c.state.RefreshSucceeded(res.Incidents)
			c.markApplied(res.Seq)
		}

	case OpDelete:
		if res.Err != nil {
			log.Warn("controller.Finish(): delete failed", "seq", res.Seq, "id", res.ID, "error", res.Err)
			c.state = c.state.DeleteFailed(res.Err)
			return Request{}, false
		}
		c.state = c.state.DeleteSucceeded(res.ID)
		c.markApplied(res.Seq)

	case OpCreate, OpUpdate:
		if res.Err != nil {
			// Submit failures are only logged, never shown in the error slot
			log.Error("controller.Finish(): submit failed", "seq", res.Seq, "op", res.Op, "error", res.Err)
			c.state = c.state.SubmitFailed(res.Err)
			return Request{}, false
		}
		if c.Superseded(res) {
			// The user moved on to another form; keep what they are typing
			log.Debug("controller.Finish(): form changed while saving", "seq", res.Seq, "form_gen", res.FormGen, "current", c.formGen)
			return c.Refresh(), true
		}
		c.state = c.state.SubmitSucceeded()
		return c.Refresh(), true
	}

	return Request{}, false
}

func (c *Controller) markApplied(seq uint64) {
	if seq > c.appliedSeq {
		c.appliedSeq = seq
	}
}

// Superseded reports whether the form was reopened or cancelled after the
// submit behind res was made
func (c *Controller) Superseded(res Result) bool {
	return res.FormGen != c.formGen
}

// BeginEdit enters Edit mode for inc and fills the form from it
func (c *Controller) BeginEdit(inc incident.Incident) {
	c.formGen++
	c.state = c.state.BeginEdit(inc)
}

// BeginEditID enters Edit mode for the listed incident with the given ID
func (c *Controller) BeginEditID(id int64) bool {
	inc, ok := c.state.Find(id)
	if !ok {
		return false
	}
	c.BeginEdit(inc)
	return true
}

func (c *Controller) CancelEdit() {
	c.formGen++
	c.state = c.state.CancelEdit()
}

func (c *Controller) SetField(f Field, value string) {
	c.state = c.state.SetField(f, value)
}

func (c *Controller) run(ctx context.Context, req Request) error {
	res := c.Execute(ctx, req)
	if follow, ok := c.Finish(res); ok {
		if err := c.run(ctx, follow); err != nil {
			return err
		}
	}
	return res.Err
}

// MountSync mounts and waits for the initial refresh
func (c *Controller) MountSync(ctx context.Context) error {
	return c.run(ctx, c.Mount())
}

// RefreshSync reloads the collection and waits for it
func (c *Controller) RefreshSync(ctx context.Context) error {
	return c.run(ctx, c.Refresh())
}

// SubmitSync submits the form and, on success, waits for the follow-up refresh
func (c *Controller) SubmitSync(ctx context.Context) error {
	req, ok := c.Submit()
	if !ok {
		nameErr, descriptionErr := incident.ValidateFields(c.state.Form.Name, c.state.Form.Description)
		return fmt.Errorf("%w: %w", ErrInvalidDraft, errors.Join(nameErr, descriptionErr))
	}
	return c.run(ctx, req)
}

// DeleteSync deletes the incident and waits for the result
func (c *Controller) DeleteSync(ctx context.Context, id int64) error {
	return c.run(ctx, c.Delete(id))
}
