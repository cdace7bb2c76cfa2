package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/wargakita/event-service/internal/domain/events"
)

// fakeStore is an in-memory Repository + ParticipantRepository used by
// the handler tests.
type fakeStore struct {
	mu           sync.Mutex
	events       map[string]events.Event
	participants map[string][]events.Participant
	listErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[string]events.Event),
		participants: make(map[string][]events.Participant),
	}
}

func (s *fakeStore) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	s.events[event.ID] = event
	return &event, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &event, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, params events.EventParams) (*events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	event.Title = params.Title
	event.StartTime = params.StartTime
	event.EndTime = params.EndTime
	event.Location = params.Location
	event.Quota = params.Quota
	event.Description = params.Description
	event.UpdatedAt = time.Now().UTC()
	s.events[id] = event
	return &event, nil
}

func (s *fakeStore) List(ctx context.Context, query events.ListQuery) ([]events.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	items := make([]events.Event, 0, len(s.events))
	for _, event := range s.events {
		items = append(items, event)
	}
	total := int64(len(items))
	offset := query.Page * query.PerPage
	if offset >= len(items) {
		return nil, total, nil
	}
	end := offset + query.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], total, nil
}

func (s *fakeStore) Register(ctx context.Context, participant events.Participant) (*events.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[participant.EventID]
	if !ok {
		return nil, events.ErrNotFound
	}
	existing := s.participants[participant.EventID]
	for _, p := range existing {
		if p.NIK == participant.NIK {
			return nil, events.ErrParticipantConflict
		}
	}
	if len(existing) >= event.Quota {
		return nil, events.ErrQuotaFull
	}
	s.participants[participant.EventID] = append(existing, participant)
	return &participant, nil
}

func (s *fakeStore) ListByEvent(ctx context.Context, eventID string) ([]events.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Participant(nil), s.participants[eventID]...), nil
}

type stubVerifier struct {
	known map[string]bool
	err   error
}

func (v *stubVerifier) Exists(ctx context.Context, nik string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	return v.known[nik], nil
}

// newTestMux mounts the handlers on path-parameter routes the way the
// router does.
func newTestMux(eventsHandler *EventsHandler, participantsHandler *ParticipantsHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/events", eventsHandler.List)
	mux.HandleFunc("POST /api/v1/events", eventsHandler.Create)
	mux.HandleFunc("GET /api/v1/events/{id}", eventsHandler.Get)
	mux.HandleFunc("PUT /api/v1/events/{id}", eventsHandler.Update)
	mux.HandleFunc("GET /api/v1/events/{id}/participants", participantsHandler.List)
	mux.HandleFunc("POST /api/v1/events/{id}/participants", participantsHandler.Register)
	return mux
}
