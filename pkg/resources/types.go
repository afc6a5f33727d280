package resources

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ DBInstance = (*pgxpool.Pool)(nil)
	_ Closable   = (*pgxpool.Pool)(nil)
)

// DBInstance is the subset of *pgxpool.Pool the store relies on, so tests can use pgxmock.
type DBInstance interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Closable interface {
	Close()
}

// StopFn releases a resource, giving up after timeout.
type StopFn func(ctx context.Context, timeout time.Duration)

func NoopStopFn(context.Context, time.Duration) {}
