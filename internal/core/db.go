package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB defines the database operations used by service structs.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Queryer
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Queryer is the statement-level subset of DB. pgx.Tx satisfies it, so
// methods that take a Queryer can run inside a caller's transaction.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
