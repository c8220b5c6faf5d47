// Package storeerr defines the error taxonomy shared by the caches and the
// Postgres repositories, plus the mapping from driver errors onto it.
package storeerr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrDuplicate is returned when a unique key (primary or business) is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrForeignKey is returned when a referenced parent row does not exist.
	ErrForeignKey = errors.New("foreign key violation")
	// ErrConstraint is returned when a database check constraint rejects the write.
	ErrConstraint = errors.New("constraint violation")
	// ErrInvalidInput is returned when an argument fails a precondition,
	// e.g. an entity with an unassigned identity passed to a cache insert.
	ErrInvalidInput = errors.New("invalid input")
)

// Postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Classify maps a pgx/pgconn error onto the taxonomy above. Errors that do not
// correspond to an expected condition are returned unchanged so callers can
// still wrap and escalate them.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrForeignKey
		case pgCheckViolation:
			return ErrConstraint
		}
	}
	return err
}
