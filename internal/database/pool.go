package database

import (
	"context"
	"strconv"
)

// Dialect identifies the SQL flavor spoken by a backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// MaxParams is the largest number of bind parameters one statement may carry.
func (d Dialect) MaxParams() int {
	if d == SQLite {
		return 32766
	}
	return 65535
}

// SupportsReturning reports whether INSERT/UPDATE/DELETE ... RETURNING works.
func (d Dialect) SupportsReturning() bool {
	return d != MySQL
}

// Rows is a forward-only cursor over a query result.
// It must be closed before the connection runs another statement.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier runs statements. Both Conn and Tx implement it, so repository code
// does not care whether it runs inside a transaction.
type Querier interface {
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Dialect() Dialect
}

// Beginner starts a transaction. On a Tx it starts a nested one backed by a
// savepoint.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// Conn is a connection checked out of a Pool. It is owned by a single
// operation and must be released exactly once.
type Conn interface {
	Querier
	Beginner
	Release()
}

// Pool is a bounded set of reusable connections.
type Pool interface {
	// Acquire blocks until a connection is free. It fails with
	// sqlerr.ErrPoolExhausted when ctx (or the configured acquire timeout)
	// expires first, and with sqlerr.ErrBackendUnavailable when the backend
	// cannot be reached or the pool is closed.
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Stats() Stats
	Dialect() Dialect
	Close() error
}

// Stats is a point-in-time snapshot of pool usage.
type Stats struct {
	MaxConns     int64
	TotalConns   int64
	InUse        int64
	Idle         int64
	WaitCount    int64
	AcquireCount int64
}

// WithConn acquires a connection, passes it to fn and releases it on every path.
func WithConn[T any](ctx context.Context, pool Pool, fn func(Conn) (T, error)) (T, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer conn.Release()

	return fn(conn)
}

// backend is implemented per driver family.
type backend interface {
	acquire(ctx context.Context) (driverConn, error)
	ping(ctx context.Context) error
	stats() Stats
	close()
}

type driverQuerier interface {
	exec(ctx context.Context, query string, args ...any) (int64, error)
	query(ctx context.Context, query string, args ...any) (Rows, error)
}

type driverConn interface {
	driverQuerier
	begin(ctx context.Context) (driverTx, error)
	release()
}

type driverTx interface {
	driverQuerier
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
}
