// Package incidentapi is an in-memory implementation of the remote incident
// resource, for local development and end-to-end tests of the client.
package incidentapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const incidentPath = "/incident"

// Messages returned in the 400 response body
const (
	msgNameRequired        = "Name is required"
	msgNameLength          = "The length of the incident name should be between 1 and 50 characters"
	msgDescriptionRequired = "Description is required"
	msgDescriptionLength   = "The length of the incident description should be between 1 and 200 characters"
	msgInvalidBody         = "Request body is not a valid incident"
	msgIDRequired          = "Incident id is required"
)

// incidentRequest is the body of a create or update
type incidentRequest struct {
	ID          *int64 `json:"id"`
	Name        string `json:"name" validate:"notblank,min=1,max=50"`
	Description string `json:"description" validate:"notblank,min=1,max=200"`
	DateTime    string `json:"dateTime"`
}

func (r incidentRequest) incident() incident.Incident {
	return incident.Incident{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		DateTime:    r.DateTime,
	}
}

type Option func(*API)

// WithClock sets the time source for created and updated dates
func WithClock(now func() time.Time) Option {
	return func(a *API) { a.now = now }
}

// WithMetrics records requests on m
func WithMetrics(m *Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// API serves the incident resource from a MemStore
type API struct {
	store    *MemStore
	validate *validator.Validate
	metrics  *Metrics
	now      func() time.Time
}

func New(store *MemStore, opts ...Option) *API {
	if store == nil {
		panic("incidentapi.New(): store is required")
	}

	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("incidentapi.New(): %v", err))
	}

	a := &API{
		store:    store,
		validate: v,
		metrics:  NewMetrics(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.metrics.Incidents.Set(float64(store.Len()))
	return a
}

// RegisterRoutes attaches the incident endpoints to the router
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route(incidentPath, func(r chi.Router) {
		r.Get("/", a.handleList)
		r.Post("/", a.handleCreate)
		r.Put("/", a.handleUpdate)
		r.Delete("/{id}", a.handleDelete)
	})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	a.respond(w, "list", http.StatusOK, a.store.List())
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r, "create")
	if !ok {
		return
	}

	created := a.store.Create(req.incident(), a.now().UTC())
	log.Info("incident created", "id", *created.ID, "name", created.Name)
	a.respond(w, "create", http.StatusCreated, created)
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r, "update")
	if !ok {
		return
	}
	if req.ID == nil {
		a.respond(w, "update", http.StatusBadRequest, []string{msgIDRequired})
		return
	}

	updated, err := a.store.Update(req.incident(), a.now().UTC())
	if errors.Is(err, ErrNotFound) {
		log.Warn("update of unknown incident", "id", *req.ID)
		a.respond(w, "update", http.StatusNotFound, nil)
		return
	}

	log.Info("incident updated", "id", *updated.ID)
	a.respond(w, "update", http.StatusOK, updated)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := incident.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		a.respond(w, "delete", http.StatusBadRequest, []string{err.Error()})
		return
	}

	if err := a.store.Delete(id); err != nil {
		log.Warn("delete of unknown incident", "id", id)
		a.respond(w, "delete", http.StatusNotFound, nil)
		return
	}

	log.Info("incident deleted", "id", id)
	a.respond(w, "delete", http.StatusOK, nil)
}

// decode reads and validates the request body. On failure it writes the 400
// response with one message per failing field.
func (a *API) decode(w http.ResponseWriter, r *http.Request, op string) (incidentRequest, bool) {
	var req incidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug("invalid request body", "op", op, "error", err)
		a.respond(w, op, http.StatusBadRequest, []string{msgInvalidBody})
		return req, false
	}

	if err := a.validate.Struct(req); err != nil {
		log.Debug("validation failed", "op", op, "error", err)
		a.respond(w, op, http.StatusBadRequest, validationMessages(err))
		return req, false
	}

	return req, true
}

func validationMessages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		required := fe.Tag() == "notblank"
		switch fe.Field() {
		case "Name":
			if required {
				messages = append(messages, msgNameRequired)
			} else {
				messages = append(messages, msgNameLength)
			}
		case "Description":
			if required {
				messages = append(messages, msgDescriptionRequired)
			} else {
				messages = append(messages, msgDescriptionLength)
			}
		default:
			messages = append(messages, fe.Error())
		}
	}
	return messages
}

func (a *API) respond(w http.ResponseWriter, op string, code int, body any) {
	a.metrics.RequestsTotal.WithLabelValues(op, strconv.Itoa(code)).Inc()
	a.metrics.Incidents.Set(float64(a.store.Len()))

	if body == nil {
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(body)
}
