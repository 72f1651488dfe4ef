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

// RacerProfile holds a user's matchable driver identity: the stated
// name, its cached normalized form, and an optional transponder number.
type RacerProfile struct {
	UserID            uuid.UUID `json:"user_id"`
	DriverName        string    `json:"driver_name"`
	NormalizedName    *string   `json:"normalized_name,omitempty"`
	TransponderNumber *string   `json:"transponder_number,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpsertRacerProfileParams holds parameters for creating/updating a profile
type UpsertRacerProfileParams struct {
	UserID            uuid.UUID
	DriverName        string
	NormalizedName    string // empty persists NULL
	TransponderNumber string // empty persists NULL
}

// ProfileRepository handles racer profile persistence
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const racerProfileColumns = `user_id, driver_name, normalized_name, transponder_number, created_at, updated_at`

func scanRacerProfile(row pgx.Row) (*RacerProfile, error) {
	var p RacerProfile
	err := row.Scan(&p.UserID, &p.DriverName, &p.NormalizedName, &p.TransponderNumber, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID retrieves the racer profile for a user
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*RacerProfile, error) {
	query := `
		SELECT ` + racerProfileColumns + `
		FROM racer_profiles
		WHERE user_id = $1
	`

	profile, err := scanRacerProfile(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("getting racer profile: %w", err)
	}
	return profile, nil
}

// Upsert creates or replaces a user's racer profile
func (r *ProfileRepository) Upsert(ctx context.Context, params UpsertRacerProfileParams) (*RacerProfile, error) {
	query := `
		INSERT INTO racer_profiles (user_id, driver_name, normalized_name, transponder_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			driver_name = EXCLUDED.driver_name,
			normalized_name = EXCLUDED.normalized_name,
			transponder_number = EXCLUDED.transponder_number,
			updated_at = now()
		RETURNING ` + racerProfileColumns + `
	`

	profile, err := scanRacerProfile(r.pool.QueryRow(ctx, query,
		params.UserID,
		params.DriverName,
		stringPtrOrNil(params.NormalizedName),
		stringPtrOrNil(params.TransponderNumber),
	))
	if err != nil {
		return nil, fmt.Errorf("upserting racer profile: %w", err)
	}
	return profile, nil
}

// ListAll returns every racer profile. Ingestion matches each imported
// driver against the full profile set.
func (r *ProfileRepository) ListAll(ctx context.Context) ([]RacerProfile, error) {
	query := `
		SELECT ` + racerProfileColumns + `
		FROM racer_profiles
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing racer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []RacerProfile
	for rows.Next() {
		p, err := scanRacerProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating racer profiles: %w", err)
	}

	return profiles, nil
}

// ListUpdatedSince returns profiles created or edited after the given
// time. The rematch sweep uses this to pick up profiles that changed
// after their events were ingested.
func (r *ProfileRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]RacerProfile, error) {
	query := `
		SELECT ` + racerProfileColumns + `
		FROM racer_profiles
		WHERE updated_at > $1
		ORDER BY updated_at
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("listing updated racer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []RacerProfile
	for rows.Next() {
		p, err := scanRacerProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating updated racer profiles: %w", err)
	}

	return profiles, nil
}

// UserExists reports whether the user account exists at all, which lets
// callers distinguish "no racer profile yet" from "unknown user".
func (r *ProfileRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return exists, nil
}
