package incident

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the second-precision layout used for DateTime; it matches
// the first 19 characters of an ISO-8601 UTC instant
const TimestampLayout = "2006-01-02T15:04:05"

// Incident is the record managed by the remote incident resource
type Incident struct {
	// ID is assigned by the remote store and is nil on a draft
	ID          *int64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DateTime    string `json:"dateTime"`
}

// ID returns a pointer to a copy of id, for building incidents with a known ID
func ID(id int64) *int64 {
	return &id
}

// NewDraft returns an incident ready for submission. The name and description
// are trimmed and DateTime is stamped from now. A nil id creates a new
// incident, a non-nil id updates an existing one.
func NewDraft(id *int64, name, description string, now time.Time) Incident {
	return Incident{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		DateTime:    Timestamp(now),
	}
}

// Timestamp formats t in UTC with second precision
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// HasID returns true if the incident has been assigned an ID by the store
func (i Incident) HasID() bool {
	return i.ID != nil
}

// Is returns true if the incident has the given ID
func (i Incident) Is(id int64) bool {
	return i.ID != nil && *i.ID == id
}

// IDString returns the ID for display, or an empty string for a draft
func (i Incident) IDString() string {
	if i.ID == nil {
		return ""
	}
	return strconv.FormatInt(*i.ID, 10)
}

// ParseID parses a display ID back into an incident ID
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
