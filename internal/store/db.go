package store

import (
	"context"
	"database/sql"
)

// DBTX is the querying surface the document store needs. Both *sql.DB and
// *sql.Tx satisfy it, so the same store code runs standalone or inside a
// transaction handed out by RunInTransaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
