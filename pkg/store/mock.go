package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/clcollins/incmgr/pkg/incident"
)

var ErrMockError = fmt.Errorf("store.Mock(): mock error") // Used to mock errors in unit tests

// MockIncidentStore is an in-memory IncidentStore for unit tests. Setting one of
// the *Err fields makes the matching operation fail with it.
type MockIncidentStore struct {
	mu sync.Mutex

	Incidents []incident.Incident
	NextID    int64

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Calls records every operation in the order it was received
	Calls   []string
	Created []incident.Incident
	Updated []incident.Incident
	Deleted []int64
}

// MockStatusError returns an error shaped like a non-2xx response for the given kind
func MockStatusError(kind error, code int) error {
	return fmt.Errorf("store.Mock(): %w: %w", kind, &StatusError{Code: code})
}

// MockTransportError returns an error shaped like a transport failure for the given kind
func MockTransportError(kind error) error {
	return fmt.Errorf("store.Mock(): %w: %w", kind, fmt.Errorf("%w: %w", ErrTransport, ErrMockError))
}

func (m *MockIncidentStore) ListAll(ctx context.Context) ([]incident.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, opList)

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	return append([]incident.Incident(nil), m.Incidents...), nil
}

func (m *MockIncidentStore) Create(ctx context.Context, i incident.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, opCreate)

	if m.CreateErr != nil {
		return m.CreateErr
	}

	m.NextID++
	i.ID = incident.ID(m.NextID)
	m.Created = append(m.Created, i)
	m.Incidents = append(m.Incidents, i)
	return nil
}

func (m *MockIncidentStore) Update(ctx context.Context, i incident.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, opUpdate)

	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	for n := range m.Incidents {
		if i.ID != nil && m.Incidents[n].Is(*i.ID) {
			m.Updated = append(m.Updated, i)
			m.Incidents[n] = i
			return nil
		}
	}

	return MockStatusError(ErrSubmitFailed, http.StatusNotFound)
}

func (m *MockIncidentStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, opDelete)

	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.Deleted = append(m.Deleted, id)
	kept := m.Incidents[:0:0]
	for _, i := range m.Incidents {
		if !i.Is(id) {
			kept = append(kept, i)
		}
	}
	m.Incidents = kept
	return nil
}
