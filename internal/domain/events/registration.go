package events

import (
	"context"
	"fmt"

	"github.com/wargakita/event-service/internal/domain/ids"
)

// RegistrationService admits residents to event rosters. Each
// registration runs a strict sequence: event lookup, identity
// verification, then an atomic duplicate-and-quota-checked insert.
type RegistrationService struct {
	events       Repository
	participants ParticipantRepository
	identity     IdentityVerifier
}

func NewRegistrationService(events Repository, participants ParticipantRepository, identity IdentityVerifier) *RegistrationService {
	return &RegistrationService{events: events, participants: participants, identity: identity}
}

// Register admits the resident identified by nik to the event. Failure
// modes, in order of detection: ErrNotFound (event or resident absent),
// ErrIdentityConflict / ErrIdentityUnavailable (propagated unchanged
// from the verifier), ErrParticipantConflict (already registered),
// ErrQuotaFull (roster at capacity). Duplicate and quota checks happen
// inside the participant repository's atomic Register so concurrent
// requests cannot admit past the quota.
func (s *RegistrationService) Register(ctx context.Context, eventID string, nik string) (*Participant, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	found, err := s.identity.Exists(ctx, nik)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: nik %s", ErrIdentityNotFound, nik)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint participant id: %w", err)
	}

	return s.participants.Register(ctx, Participant{
		ID:      id,
		EventID: eventID,
		NIK:     nik,
	})
}
