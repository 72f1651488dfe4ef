package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"my-race-engineer/internal/db"
	"my-race-engineer/internal/identity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LinkStatus tracks the user-driver decision lifecycle.
type LinkStatus string

const (
	LinkStatusSuggested LinkStatus = "suggested"
	LinkStatusConfirmed LinkStatus = "confirmed"
	LinkStatusRejected  LinkStatus = "rejected"
	// LinkStatusConflict is a legal stored value for ambiguous cases.
	// Nothing in this service sets it; it is reserved for operator
	// tooling.
	LinkStatusConflict LinkStatus = "conflict"
)

// IsUserDecision reports whether the status is one a user may set
// through confirm/reject.
func (s LinkStatus) IsUserDecision() bool {
	return s == LinkStatusConfirmed || s == LinkStatusRejected
}

// EventDriverLink records how a user was matched to a driver within one
// event. At most one row exists per (user, event, driver); rows are
// never deleted, only superseded by stronger matches.
type EventDriverLink struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	EventID         uuid.UUID          `json:"event_id"`
	DriverID        uuid.UUID          `json:"driver_id"`
	MatchType       identity.MatchType `json:"match_type"`
	MatchPriority   int                `json:"match_priority"`
	SimilarityScore float64            `json:"similarity_score"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// LinkWithEvent joins a link with its event and the resolved status.
type LinkWithEvent struct {
	EventDriverLink
	EventName string     `json:"event_name"`
	EventSlug string     `json:"event_slug"`
	EventDate time.Time  `json:"event_date"`
	Track     string     `json:"track"`
	Status    LinkStatus `json:"status"`
}

// UserDriverLink tracks a user's decision about a driver suggestion.
type UserDriverLink struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	DriverID  uuid.UUID  `json:"driver_id"`
	Status    LinkStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UpsertOutcome describes what an event-driver link upsert did.
type UpsertOutcome string

const (
	UpsertCreated   UpsertOutcome = "created"
	UpsertUpdated   UpsertOutcome = "updated"
	UpsertUnchanged UpsertOutcome = "unchanged"
)

// UpsertEventDriverLinkParams holds parameters for recording a match
type UpsertEventDriverLinkParams struct {
	UserID          uuid.UUID
	EventID         uuid.UUID
	DriverID        uuid.UUID
	MatchType       identity.MatchType
	SimilarityScore float64
}

// LinkRepository persists identity-resolution outcomes
type LinkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

const eventDriverLinkColumns = `id, user_id, event_id, driver_id, match_type, match_priority, similarity_score, created_at, updated_at`

func scanEventDriverLink(row pgx.Row) (*EventDriverLink, error) {
	var l EventDriverLink
	err := row.Scan(&l.ID, &l.UserID, &l.EventID, &l.DriverID, &l.MatchType, &l.MatchPriority,
		&l.SimilarityScore, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetEventDriverLink retrieves the link for a (user, event, driver) triple
func (r *LinkRepository) GetEventDriverLink(ctx context.Context, userID, eventID, driverID uuid.UUID) (*EventDriverLink, error) {
	query := `
		SELECT ` + eventDriverLinkColumns + `
		FROM event_driver_links
		WHERE user_id = $1 AND event_id = $2 AND driver_id = $3
	`

	link, err := scanEventDriverLink(r.pool.QueryRow(ctx, query, userID, eventID, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("getting event-driver link: %w", err)
	}
	return link, nil
}

// UpsertEventDriverLink records a match outcome. A missing link is
// created; an existing one is updated only when the new match strictly
// supersedes it (stronger match type, or same type with a strictly
// higher score). A stored confident match is never downgraded, so
// re-running ingestion in any order converges on the strongest signal.
func (r *LinkRepository) UpsertEventDriverLink(ctx context.Context, params UpsertEventDriverLinkParams) (*EventDriverLink, UpsertOutcome, error) {
	current, err := r.GetEventDriverLink(ctx, params.UserID, params.EventID, params.DriverID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		link, insErr := r.insertEventDriverLink(ctx, params)
		if insErr == nil {
			return link, UpsertCreated, nil
		}
		if !db.IsUniqueViolation(insErr) {
			return nil, "", insErr
		}
		// A concurrent ingest won the insert; compare against its row.
		current, err = r.GetEventDriverLink(ctx, params.UserID, params.EventID, params.DriverID)
		if err != nil {
			return nil, "", err
		}
	case err != nil:
		return nil, "", err
	}

	if !identity.Supersedes(params.MatchType, params.SimilarityScore, current.MatchType, current.SimilarityScore) {
		return current, UpsertUnchanged, nil
	}

	updated, err := r.updateEventDriverLink(ctx, current.ID, params)
	if err != nil {
		return nil, "", err
	}
	return updated, UpsertUpdated, nil
}

func (r *LinkRepository) insertEventDriverLink(ctx context.Context, params UpsertEventDriverLinkParams) (*EventDriverLink, error) {
	query := `
		INSERT INTO event_driver_links (user_id, event_id, driver_id, match_type, match_priority, similarity_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + eventDriverLinkColumns + `
	`

	link, err := scanEventDriverLink(r.pool.QueryRow(ctx, query,
		params.UserID,
		params.EventID,
		params.DriverID,
		string(params.MatchType),
		identity.MatchPriority(params.MatchType),
		params.SimilarityScore,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting event-driver link: %w", err)
	}
	return link, nil
}

func (r *LinkRepository) updateEventDriverLink(ctx context.Context, id uuid.UUID, params UpsertEventDriverLinkParams) (*EventDriverLink, error) {
	query := `
		UPDATE event_driver_links
		SET match_type = $2, match_priority = $3, similarity_score = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + eventDriverLinkColumns + `
	`

	link, err := scanEventDriverLink(r.pool.QueryRow(ctx, query,
		id,
		string(params.MatchType),
		identity.MatchPriority(params.MatchType),
		params.SimilarityScore,
	))
	if err != nil {
		return nil, fmt.Errorf("updating event-driver link: %w", err)
	}
	return link, nil
}

// ListLinksForUser returns a user's links joined with event data and
// the resolved status. The implicit-suggested default is applied here,
// at the repository boundary, so callers never branch on a missing
// status row. A limit of 0 or less returns everything.
func (r *LinkRepository) ListLinksForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]LinkWithEvent, error) {
	query := `
		SELECT l.id, l.user_id, l.event_id, l.driver_id, l.match_type, l.match_priority,
			l.similarity_score, l.created_at, l.updated_at,
			e.name, e.slug, e.event_date, e.track,
			COALESCE(u.status, 'suggested') AS status
		FROM event_driver_links l
		JOIN events e ON e.id = l.event_id
		LEFT JOIN user_driver_links u ON u.user_id = l.user_id AND u.driver_id = l.driver_id
		WHERE l.user_id = $1
		ORDER BY e.event_date DESC, l.created_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var links []LinkWithEvent
	for rows.Next() {
		var l LinkWithEvent
		err := rows.Scan(&l.ID, &l.UserID, &l.EventID, &l.DriverID, &l.MatchType, &l.MatchPriority,
			&l.SimilarityScore, &l.CreatedAt, &l.UpdatedAt,
			&l.EventName, &l.EventSlug, &l.EventDate, &l.Track,
			&l.Status)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}

	return links, nil
}

// CountLinksForUser returns the number of event-driver links for a user
func (r *LinkRepository) CountLinksForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_driver_links WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return count, nil
}

// SetUserDriverLinkStatus records a user's confirm/reject decision for
// a driver. It requires evidence that the pair was ever linked and is
// idempotent: repeating a decision leaves a single row with that
// status, and a new decision overwrites a pending suggestion.
func (r *LinkRepository) SetUserDriverLinkStatus(ctx context.Context, userID, driverID uuid.UUID, status LinkStatus) (*UserDriverLink, error) {
	evidenceQuery := `
		SELECT EXISTS (SELECT 1 FROM event_driver_links WHERE user_id = $1 AND driver_id = $2)
			OR EXISTS (SELECT 1 FROM user_driver_links WHERE user_id = $1 AND driver_id = $2)
	`

	var hasEvidence bool
	if err := r.pool.QueryRow(ctx, evidenceQuery, userID, driverID).Scan(&hasEvidence); err != nil {
		return nil, fmt.Errorf("checking link evidence: %w", err)
	}
	if !hasEvidence {
		return nil, db.ErrNotFound
	}

	query := `
		INSERT INTO user_driver_links (user_id, driver_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, driver_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = now()
		RETURNING id, user_id, driver_id, status, created_at, updated_at
	`

	var link UserDriverLink
	err := r.pool.QueryRow(ctx, query, userID, driverID, string(status)).
		Scan(&link.ID, &link.UserID, &link.DriverID, &link.Status, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("setting user-driver link status: %w", err)
	}
	return &link, nil
}
