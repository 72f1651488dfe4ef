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

// Driver represents a distinct competitor as seen in imported results.
// Rows are created during ingestion and keyed by the source system's
// stable driver identifier; they are never deleted.
type Driver struct {
	ID                 uuid.UUID `json:"id"`
	SourceDriverID     string    `json:"source_driver_id"`
	DisplayName        string    `json:"display_name"`
	NormalizedName     string    `json:"normalized_name"`
	DefaultTransponder *string   `json:"default_transponder,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UpsertDriverParams holds parameters for creating/updating a driver
type UpsertDriverParams struct {
	SourceDriverID     string
	DisplayName        string
	NormalizedName     string
	DefaultTransponder string // empty persists NULL
}

// DriverRepository handles driver persistence
type DriverRepository struct {
	pool *pgxpool.Pool
}

// NewDriverRepository creates a new driver repository
func NewDriverRepository(pool *pgxpool.Pool) *DriverRepository {
	return &DriverRepository{pool: pool}
}

const driverColumns = `id, source_driver_id, display_name, normalized_name, default_transponder, created_at, updated_at`

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(&d.ID, &d.SourceDriverID, &d.DisplayName, &d.NormalizedName, &d.DefaultTransponder, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertBySourceID creates the driver on first sight of its source ID
// and refreshes display data on later imports. A transponder already on
// record is kept when the new import lacks one.
func (r *DriverRepository) UpsertBySourceID(ctx context.Context, params UpsertDriverParams) (*Driver, error) {
	query := `
		INSERT INTO drivers (source_driver_id, display_name, normalized_name, default_transponder)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_driver_id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			normalized_name = EXCLUDED.normalized_name,
			default_transponder = COALESCE(EXCLUDED.default_transponder, drivers.default_transponder),
			updated_at = now()
		RETURNING ` + driverColumns + `
	`

	driver, err := scanDriver(r.pool.QueryRow(ctx, query,
		params.SourceDriverID,
		params.DisplayName,
		params.NormalizedName,
		stringPtrOrNil(params.DefaultTransponder),
	))
	if err != nil {
		return nil, fmt.Errorf("upserting driver: %w", err)
	}
	return driver, nil
}

// GetByID retrieves a driver by ID
func (r *DriverRepository) GetByID(ctx context.Context, id uuid.UUID) (*Driver, error) {
	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE id = $1
	`

	driver, err := scanDriver(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("getting driver: %w", err)
	}
	return driver, nil
}

// GetBySourceID retrieves a driver by its source-system identifier
func (r *DriverRepository) GetBySourceID(ctx context.Context, sourceDriverID string) (*Driver, error) {
	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE source_driver_id = $1
	`

	driver, err := scanDriver(r.pool.QueryRow(ctx, query, sourceDriverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("getting driver by source id: %w", err)
	}
	return driver, nil
}
