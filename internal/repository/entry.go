package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventEntry is a raw participation record from the ingestion pipeline:
// one driver in one class of one event, with the transponder they ran.
// This subsystem reads entries as the fallback participation signal;
// ingestion owns the rows.
type EventEntry struct {
	ID                uuid.UUID `json:"id"`
	EventID           uuid.UUID `json:"event_id"`
	DriverID          uuid.UUID `json:"driver_id"`
	ClassName         string    `json:"class_name"`
	TransponderNumber *string   `json:"transponder_number,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// EntryWithDriver joins an entry with its driver's display data.
type EntryWithDriver struct {
	EventEntry
	DriverDisplayName string `json:"driver_display_name"`
}

// EntryParticipation is a discovery fallback row: an entry whose driver
// name matched the user, joined with its event.
type EntryParticipation struct {
	EventID           uuid.UUID
	EventName         string
	EventSlug         string
	EventDate         time.Time
	Track             string
	DriverID          uuid.UUID
	ClassName         string
	TransponderNumber *string
}

// EntryCandidate pairs an unlinked entry with its driver's matchable
// attributes for rematch evaluation.
type EntryCandidate struct {
	EventID              uuid.UUID
	DriverID             uuid.UUID
	DriverDisplayName    string
	DriverNormalizedName string
	DriverTransponder    *string // driver's default transponder
	EntryTransponder     *string // transponder recorded for this entry
}

// UpsertEntryParams holds parameters for creating/updating an entry
type UpsertEntryParams struct {
	EventID           uuid.UUID
	DriverID          uuid.UUID
	ClassName         string
	TransponderNumber string // empty persists NULL
}

// EntryRepository handles event entry persistence
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Upsert records a driver's entry in an event class, refreshing the
// transponder when re-imported.
func (r *EntryRepository) Upsert(ctx context.Context, params UpsertEntryParams) (*EventEntry, error) {
	query := `
		INSERT INTO event_entries (event_id, driver_id, class_name, transponder_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, driver_id, class_name)
		DO UPDATE SET
			transponder_number = COALESCE(EXCLUDED.transponder_number, event_entries.transponder_number)
		RETURNING id, event_id, driver_id, class_name, transponder_number, created_at
	`

	var e EventEntry
	err := r.pool.QueryRow(ctx, query,
		params.EventID,
		params.DriverID,
		params.ClassName,
		stringPtrOrNil(params.TransponderNumber),
	).Scan(&e.ID, &e.EventID, &e.DriverID, &e.ClassName, &e.TransponderNumber, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting event entry: %w", err)
	}
	return &e, nil
}

// ListByEvent returns an event's entry list with driver display names.
func (r *EntryRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]EntryWithDriver, error) {
	query := `
		SELECT en.id, en.event_id, en.driver_id, en.class_name, en.transponder_number, en.created_at,
			d.display_name
		FROM event_entries en
		JOIN drivers d ON d.id = en.driver_id
		WHERE en.event_id = $1
		ORDER BY en.class_name, d.display_name
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing event entries: %w", err)
	}
	defer rows.Close()

	var entries []EntryWithDriver
	for rows.Next() {
		var e EntryWithDriver
		err := rows.Scan(&e.ID, &e.EventID, &e.DriverID, &e.ClassName, &e.TransponderNumber, &e.CreatedAt,
			&e.DriverDisplayName)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event entries: %w", err)
	}

	return entries, nil
}

// FindByNormalizedDriverName returns entries whose driver's normalized
// name equals the given key, joined with their events. This is the
// discovery fallback for events ingested before any link existed.
func (r *EntryRepository) FindByNormalizedDriverName(ctx context.Context, normalizedName string) ([]EntryParticipation, error) {
	query := `
		SELECT ev.id, ev.name, ev.slug, ev.event_date, ev.track,
			en.driver_id, en.class_name, en.transponder_number
		FROM event_entries en
		JOIN drivers d ON d.id = en.driver_id
		JOIN events ev ON ev.id = en.event_id
		WHERE d.normalized_name = $1
		ORDER BY ev.event_date DESC
	`

	rows, err := r.pool.Query(ctx, query, normalizedName)
	if err != nil {
		return nil, fmt.Errorf("finding entries by driver name: %w", err)
	}
	defer rows.Close()

	var participations []EntryParticipation
	for rows.Next() {
		var p EntryParticipation
		err := rows.Scan(&p.EventID, &p.EventName, &p.EventSlug, &p.EventDate, &p.Track,
			&p.DriverID, &p.ClassName, &p.TransponderNumber)
		if err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry participations: %w", err)
	}

	return participations, nil
}

// ListUnlinkedForUser returns the (event, driver) pairs that have an
// entry but no event-driver link for the user yet. The rematch sweep
// evaluates these so late profile edits still materialize links.
func (r *EntryRepository) ListUnlinkedForUser(ctx context.Context, userID uuid.UUID) ([]EntryCandidate, error) {
	query := `
		SELECT DISTINCT en.event_id, d.id, d.display_name, d.normalized_name, d.default_transponder,
			en.transponder_number
		FROM event_entries en
		JOIN drivers d ON d.id = en.driver_id
		LEFT JOIN event_driver_links l
			ON l.user_id = $1 AND l.event_id = en.event_id AND l.driver_id = en.driver_id
		WHERE l.id IS NULL
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing unlinked entries: %w", err)
	}
	defer rows.Close()

	var candidates []EntryCandidate
	for rows.Next() {
		var c EntryCandidate
		err := rows.Scan(&c.EventID, &c.DriverID, &c.DriverDisplayName, &c.DriverNormalizedName,
			&c.DriverTransponder, &c.EntryTransponder)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entry candidates: %w", err)
	}

	return candidates, nil
}
