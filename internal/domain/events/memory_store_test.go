package events

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryStore backs the domain tests with the same semantics the
// postgres repositories provide: filtered/sorted/paged listing, and an
// atomic duplicate-and-quota-checked Register.
type memoryStore struct {
	mu           sync.Mutex
	events       map[string]Event
	participants map[string][]Participant
	now          time.Time
}

var (
	_ Repository            = (*memoryStore)(nil)
	_ ParticipantRepository = (*memoryStore)(nil)
)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		events:       make(map[string]Event),
		participants: make(map[string][]Participant),
		now:          time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memoryStore) Create(_ context.Context, event Event) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.CreatedAt = s.now
	event.UpdatedAt = s.now
	s.events[event.ID] = event
	return &event, nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (s *memoryStore) Update(_ context.Context, id string, params EventParams) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	event.Title = params.Title
	event.StartTime = params.StartTime
	event.EndTime = params.EndTime
	event.Location = params.Location
	event.Quota = params.Quota
	event.Description = params.Description
	event.UpdatedAt = s.now.Add(time.Minute)
	s.events[id] = event
	return &event, nil
}

func (s *memoryStore) List(_ context.Context, query ListQuery) ([]Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]Event, 0, len(s.events))
	for _, event := range s.events {
		if matchesQuery(event, query) {
			matched = append(matched, event)
		}
	}
	sortEvents(matched, query.SortField, query.SortDir)

	total := int64(len(matched))
	start := query.Page * query.PerPage
	if start >= len(matched) {
		return []Event{}, total, nil
	}
	end := start + query.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *memoryStore) Register(_ context.Context, participant Participant) (*Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[participant.EventID]
	if !ok {
		return nil, ErrNotFound
	}
	roster := s.participants[participant.EventID]
	for _, existing := range roster {
		if existing.NIK == participant.NIK {
			return nil, ErrParticipantConflict
		}
	}
	if len(roster) >= event.Quota {
		return nil, ErrQuotaFull
	}
	s.participants[participant.EventID] = append(roster, participant)
	return &participant, nil
}

func (s *memoryStore) ListByEvent(_ context.Context, eventID string) ([]Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.participants[eventID]
	out := make([]Participant, len(roster))
	copy(out, roster)
	return out, nil
}

func matchesQuery(event Event, query ListQuery) bool {
	if query.Query != "" {
		needle := strings.ToLower(query.Query)
		haystack := strings.ToLower(event.Title + "\x00" + event.Location + "\x00" + event.Description)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if query.From != nil && event.StartTime.Before(*query.From) {
		return false
	}
	if query.To != nil && event.StartTime.After(*query.To) {
		return false
	}
	return true
}

func sortEvents(items []Event, field SortField, dir SortDirection) {
	less := func(a, b Event) bool {
		switch field {
		case SortTitle:
			return a.Title < b.Title
		case SortEndTime:
			return a.EndTime.Before(b.EndTime)
		case SortLocation:
			return a.Location < b.Location
		case SortQuota:
			return a.Quota < b.Quota
		default:
			return a.StartTime.Before(b.StartTime)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if dir == SortDesc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// stubVerifier answers identity lookups from a fixed set; err, when
// set, is returned for every lookup.
type stubVerifier struct {
	known map[string]bool
	err   error
}

func (v *stubVerifier) Exists(_ context.Context, nik string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	return v.known[nik], nil
}
