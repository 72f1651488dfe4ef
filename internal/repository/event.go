package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"my-race-engineer/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is an imported race event.
type Event struct {
	ID            uuid.UUID `json:"id"`
	SourceEventID string    `json:"source_event_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	EventDate     time.Time `json:"event_date"`
	Track         string    `json:"track"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpsertEventParams holds parameters for creating/updating an event
type UpsertEventParams struct {
	SourceEventID string
	Name          string
	Slug          string
	EventDate     time.Time
	Track         string
}

// EventRepository handles event persistence
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, source_event_id, name, slug, event_date, track, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.SourceEventID, &e.Name, &e.Slug, &e.EventDate, &e.Track, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertBySourceID creates or refreshes an event keyed by the source
// system's event identifier.
func (r *EventRepository) UpsertBySourceID(ctx context.Context, params UpsertEventParams) (*Event, error) {
	query := `
		INSERT INTO events (source_event_id, name, slug, event_date, track)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_event_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			event_date = EXCLUDED.event_date,
			track = EXCLUDED.track,
			updated_at = now()
		RETURNING ` + eventColumns + `
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query,
		params.SourceEventID,
		params.Name,
		params.Slug,
		params.EventDate,
		params.Track,
	))
	if err != nil {
		return nil, fmt.Errorf("upserting event: %w", err)
	}
	return event, nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return event, nil
}

// GetBySlug retrieves an event by its URL slug
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE slug = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("getting event by slug: %w", err)
	}
	return event, nil
}
