package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wargakita/event-service/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const eventColumns = `id, title, start_time, end_time, location, quota, description, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (id, title, start_time, end_time, location, quota, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+eventColumns,
		event.ID,
		event.Title,
		event.StartTime,
		event.EndTime,
		nullIfEmpty(event.Location),
		event.Quota,
		nullIfEmpty(event.Description),
	)

	created, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return created, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, id string, params events.EventParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
UPDATE events
   SET title = $2, start_time = $3, end_time = $4, location = $5,
       quota = $6, description = $7, updated_at = now()
 WHERE id = $1
RETURNING `+eventColumns,
		id,
		params.Title,
		params.StartTime,
		params.EndTime,
		nullIfEmpty(params.Location),
		params.Quota,
		nullIfEmpty(params.Description),
	)

	updated, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (r *EventRepository) List(ctx context.Context, query events.ListQuery) ([]events.Event, int64, error) {
	q := r.queryer()
	whereSQL, args := listPredicates(query)

	var total int64
	if err := q.QueryRow(ctx, `SELECT count(*) FROM events`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	pageSQL := fmt.Sprintf(
		`SELECT %s FROM events%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		eventColumns,
		whereSQL,
		sortColumn(query.SortField),
		sortOrder(query.SortDir),
		len(args)+1,
		len(args)+2,
	)
	pageArgs := append(args, query.PerPage, query.Page*query.PerPage)

	rows, err := q.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.Event, 0, query.PerPage)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate events: %w", err)
	}

	return items, total, nil
}

// listPredicates builds the AND-combined WHERE clause for a normalized
// listing query. With no active predicates it returns an empty clause
// and the query matches everything.
func listPredicates(query events.ListQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.Query != "" {
		args = append(args, "%"+query.Query+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR location ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}
	if query.From != nil {
		args = append(args, *query.From)
		clauses = append(clauses, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if query.To != nil {
		args = append(args, *query.To)
		clauses = append(clauses, fmt.Sprintf("start_time <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// sortColumn maps a whitelisted sort field to its column. The domain
// normalizes unknown fields before they reach storage; the fallback
// keeps the ORDER BY well-formed regardless.
func sortColumn(field events.SortField) string {
	switch field {
	case events.SortTitle:
		return "title"
	case events.SortEndTime:
		return "end_time"
	case events.SortLocation:
		return "location"
	case events.SortQuota:
		return "quota"
	default:
		return "start_time"
	}
}

func sortOrder(dir events.SortDirection) string {
	if dir == events.SortAsc {
		return "ASC"
	}
	return "DESC"
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	var location, description *string
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.StartTime,
		&event.EndTime,
		&location,
		&event.Quota,
		&description,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}
	event.Location = derefString(location)
	event.Description = derefString(description)
	return &event, nil
}
