package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wargakita/event-service/internal/domain/events"
)

var _ events.ParticipantRepository = (*ParticipantRepository)(nil)

type ParticipantRepository struct {
	repo *Repository
}

const uniqueViolation = "23505"

// Register admits a participant inside one transaction. The event row
// is locked first so the duplicate and quota checks and the insert see
// a stable participant count under concurrent registrations. The
// unique constraint on (event_id, nik) backstops the duplicate check.
func (r *ParticipantRepository) Register(ctx context.Context, participant events.Participant) (*events.Participant, error) {
	var created *events.Participant

	err := r.repo.WithTx(ctx, func(ctx context.Context, tx *Repository) error {
		q := tx.queryer()

		var quota int
		err := q.QueryRow(ctx,
			`SELECT quota FROM events WHERE id = $1 FOR UPDATE`,
			participant.EventID,
		).Scan(&quota)
		if errors.Is(err, pgx.ErrNoRows) {
			return events.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}

		var exists bool
		err = q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM event_participants WHERE event_id = $1 AND nik = $2)`,
			participant.EventID, participant.NIK,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return events.ErrParticipantConflict
		}

		var count int
		err = q.QueryRow(ctx,
			`SELECT count(*) FROM event_participants WHERE event_id = $1`,
			participant.EventID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count >= quota {
			return events.ErrQuotaFull
		}

		row := q.QueryRow(ctx, `
INSERT INTO event_participants (id, event_id, nik)
VALUES ($1, $2, $3)
RETURNING id, event_id, nik`,
			participant.ID, participant.EventID, participant.NIK,
		)

		var p events.Participant
		if err := row.Scan(&p.ID, &p.EventID, &p.NIK); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return events.ErrParticipantConflict
			}
			return fmt.Errorf("insert participant: %w", err)
		}

		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *ParticipantRepository) ListByEvent(ctx context.Context, eventID string) ([]events.Participant, error) {
	rows, err := r.repo.queryer().Query(ctx, `
SELECT id, event_id, nik
  FROM event_participants
 WHERE event_id = $1
 ORDER BY created_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var participants []events.Participant
	for rows.Next() {
		var p events.Participant
		if err := rows.Scan(&p.ID, &p.EventID, &p.NIK); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return participants, nil
}
