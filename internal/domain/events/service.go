package events

import (
	"context"
	"fmt"

	"github.com/wargakita/event-service/internal/domain/ids"
)

// Service implements the event lifecycle: create, read, update and the
// filtered, paginated listing.
type Service struct {
	events       Repository
	participants ParticipantRepository
}

func NewService(events Repository, participants ParticipantRepository) *Service {
	return &Service{events: events, participants: participants}
}

func (s *Service) Create(ctx context.Context, params EventParams) (*Event, error) {
	if err := validateTimeRange(params); err != nil {
		return nil, err
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	return s.events.Create(ctx, Event{
		ID:          id,
		Title:       params.Title,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Location:    params.Location,
		Quota:       params.Quota,
		Description: params.Description,
	})
}

func (s *Service) GetByID(ctx context.Context, id string) (*Event, error) {
	return s.events.GetByID(ctx, id)
}

// Update replaces every caller-supplied field. It re-validates the time
// range before touching storage.
func (s *Service) Update(ctx context.Context, id string, params EventParams) (*Event, error) {
	if err := validateTimeRange(params); err != nil {
		return nil, err
	}
	return s.events.Update(ctx, id, params)
}

func (s *Service) List(ctx context.Context, query ListQuery) (ListResult, error) {
	items, total, err := s.events.List(ctx, query)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Events:    items,
		Total:     total,
		Page:      query.Page,
		PerPage:   query.PerPage,
		SortField: query.SortField,
		SortDir:   query.SortDir,
	}, nil
}

func (s *Service) ListParticipants(ctx context.Context, eventID string) ([]Participant, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.participants.ListByEvent(ctx, eventID)
}

func validateTimeRange(params EventParams) error {
	if !params.EndTime.After(params.StartTime) {
		return ErrInvalidTimeRange
	}
	return nil
}
