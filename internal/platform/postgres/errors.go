package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/genewise-api/internal/diagnostics"
)

// PostgreSQL error codes
const (
	uniqueViolationCode       = "23505"
	checkViolationCode        = "23514"
	notNullViolationCode      = "23502"
	invalidTextRepresentation = "22P02"
	undefinedTableCode        = "42P01"
)

// ErrSchemaMissing is returned when the diagnostics table does not exist,
// usually because migrations have not been applied.
var ErrSchemaMissing = errors.New("diagnostics schema missing, run migrations")

// MapError maps a database error onto the diagnostics error vocabulary. The
// original error stays in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %w", diagnostics.ErrDuplicate, err)
		case checkViolationCode:
			return fmt.Errorf("%w: check constraint violation (%s): %w",
				diagnostics.ErrInvalidRecord, pgErr.ConstraintName, err)
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %w",
				diagnostics.ErrInvalidRecord, pgErr.ColumnName, err)
		case invalidTextRepresentation:
			return fmt.Errorf("%w: %w", diagnostics.ErrInvalidRecord, err)
		case undefinedTableCode:
			return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
		}
	}

	return err
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
