package events

import (
	"context"
	"time"
)

// Event is a community event with a fixed participant quota.
type Event struct {
	ID          string
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	Quota       int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Participant is a resident admitted to an event, keyed by their
// 16-digit national identity number (NIK).
type Participant struct {
	ID      string
	EventID string
	NIK     string
}

// EventParams carries the caller-supplied fields of an event. Update
// applies them with full-replace semantics, not as a partial patch.
type EventParams struct {
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	Quota       int
	Description string
}

// ListResult is one page of events plus the metadata a client needs to
// page further and to observe which sort was actually applied.
type ListResult struct {
	Events    []Event
	Total     int64
	Page      int
	PerPage   int
	SortField SortField
	SortDir   SortDirection
}

// Repository is the persistence gateway for events.
type Repository interface {
	Create(ctx context.Context, event Event) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id string, params EventParams) (*Event, error)
	List(ctx context.Context, query ListQuery) ([]Event, int64, error)
}

// ParticipantRepository persists event rosters. Register must admit the
// participant, reject duplicates and enforce the event quota as one
// atomic operation so concurrent registrations cannot over-admit.
type ParticipantRepository interface {
	Register(ctx context.Context, participant Participant) (*Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]Participant, error)
}

// IdentityVerifier confirms a NIK exists in the upstream identity
// service. Exists returns (false, nil) for a clean not-found; conflict
// and unavailability surface as ErrIdentityConflict and
// ErrIdentityUnavailable.
type IdentityVerifier interface {
	Exists(ctx context.Context, nik string) (bool, error)
}
