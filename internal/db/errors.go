package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common database errors
var (
	ErrNotFound = errors.New("record not found")
)

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505). Upserts racing on the same natural key use
// this to fall back to an update instead of failing the request.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
