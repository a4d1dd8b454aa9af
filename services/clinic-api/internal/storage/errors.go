package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsConflict reports a unique or exclusion violation, i.e. a double booking
// that slipped past the in-transaction check and hit the partial unique index.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// errNoRows lets repositories report zero-row updates/deletes without each
// importing pgx just for the sentinel.
func errNoRows() error {
	return pgx.ErrNoRows
}
