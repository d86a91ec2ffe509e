// Package repository provides typed database access for the application.
//
// Queries wraps a database handle and exposes one method per statement,
// translating rows into domain types. Postgres owns atomicity: conditional
// updates (counter increment, period reset) are single statements so no
// application-level locking is needed.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("repository: not found")

// DBTX is the minimal database interface Queries needs, satisfied by both
// *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries provides access to all database operations.
type Queries struct {
	db DBTX
}

// New creates a Queries instance backed by the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// IsUndefinedTable reports whether the error is Postgres "relation does not
// exist" (SQLSTATE 42P01). The premium tables are created by optional
// migrations; a missing table maps to a specific client-facing error.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}
