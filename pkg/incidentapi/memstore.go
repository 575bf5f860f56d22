package incidentapi

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/clcollins/incmgr/pkg/incident"
)

var ErrNotFound = errors.New("incident not found")

// Record is an incident as the server keeps it
type Record struct {
	incident.Incident
	CreatedDate time.Time `json:"createdDate"`
	UpdatedDate time.Time `json:"updatedDate"`
}

// MemStore holds records in memory. IDs come from a counter starting at 1
// and are never reused.
type MemStore struct {
	mu      sync.RWMutex
	records map[int64]Record
	nextID  int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[int64]Record),
		nextID:  1,
	}
}

// List returns copies of all records in ID order
func (s *MemStore) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(a, b int) bool {
		return *out[a].ID < *out[b].ID
	})
	return out
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Create assigns the next ID to inc, ignoring any ID it carries
func (s *MemStore) Create(inc incident.Incident, now time.Time) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc.ID = incident.ID(s.nextID)
	s.nextID++

	r := Record{Incident: inc, CreatedDate: now, UpdatedDate: now}
	s.records[*r.ID] = r
	return r
}

// Update replaces the record with inc's ID. The creation date is preserved.
func (s *MemStore) Update(inc incident.Incident, now time.Time) (Record, error) {
	if !inc.HasID() {
		return Record{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[*inc.ID]
	if !ok {
		return Record{}, ErrNotFound
	}

	inc.ID = incident.ID(*inc.ID)
	r := Record{Incident: inc, CreatedDate: existing.CreatedDate, UpdatedDate: now}
	s.records[*r.ID] = r
	return r, nil
}

func (s *MemStore) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}
