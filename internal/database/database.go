// Package database owns the connection pool and the transaction wrapper.
//
// The driver is picked from the scheme of the configured URL:
//   - postgres:// and postgresql:// use a pgx pool (pgxpool)
//   - mysql:// uses database/sql with go-sql-driver/mysql
//   - sqlite:// uses database/sql with modernc.org/sqlite
//
// Every backend is exposed through the same Pool, Conn and Tx interfaces, so
// the repository layer builds SQL once and only asks the Dialect for bind
// markers and RETURNING support.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/deppfellow/bookshelf/internal/config"
	loggerConfig "github.com/deppfellow/bookshelf/internal/logger"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
	"github.com/rs/zerolog"
)

// DatabasePingTimeout is the number of seconds New waits for the first ping
// before it gives up on the backend.
const DatabasePingTimeout = 10

// Database is the shared connection pool. It implements Pool.
type Database struct {
	backend        backend
	dialect        Dialect
	log            *zerolog.Logger
	acquireTimeout time.Duration
	queries        *queryLogger

	closed   atomic.Bool
	acquires atomic.Int64
}

var _ Pool = (*Database)(nil)

// New opens a pool for cfg.Database.URL and pings it, so a bad URL or an
// unreachable backend fails here and not on the first request.
//
// loggerService may be nil; when it carries a New Relic application the
// Postgres backend is instrumented with nrpgx5.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	target, err := ParseURL(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sqlerr.ErrBackendUnavailable, err)
	}

	var b backend
	switch target.Dialect {
	case Postgres:
		b, err = newPgxBackend(target, cfg, logger, loggerService)
	default:
		b, err = newSQLBackend(target, &cfg.Database)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sqlerr.ErrBackendUnavailable, err)
	}

	slow := time.Duration(0)
	if cfg.Observability != nil {
		slow = cfg.Observability.Logging.SlowQueryThreshold
	}

	db := &Database{
		backend:        b,
		dialect:        target.Dialect,
		log:            logger,
		acquireTimeout: cfg.Database.AcquireTimeout,
		queries: &queryLogger{
			log:     logger,
			slow:    slow,
			verbose: target.Dialect != Postgres,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), DatabasePingTimeout*time.Second)
	defer cancel()
	if err = db.Ping(ctx); err != nil {
		b.close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("driver", string(target.Dialect)).
		Int("max_conns", cfg.Database.MaxConns).
		Msg("connected to the database")

	return db, nil
}

// Acquire checks out a connection. See Pool.Acquire for the error contract.
func (db *Database) Acquire(ctx context.Context) (Conn, error) {
	if db.closed.Load() {
		return nil, fmt.Errorf("%w: pool is closed", sqlerr.ErrBackendUnavailable)
	}

	acquireCtx := ctx
	if db.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, db.acquireTimeout)
		defer cancel()
	}

	dc, err := db.backend.acquire(acquireCtx)
	if err != nil {
		return nil, classifyAcquireError(err)
	}

	db.acquires.Add(1)

	return &conn{
		querier: querier{q: dc, dialect: db.dialect, log: db.queries},
		dc:      dc,
	}, nil
}

func classifyAcquireError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", sqlerr.ErrPoolExhausted, err)
	}
	return fmt.Errorf("%w: %w", sqlerr.ErrBackendUnavailable, err)
}

// Ping verifies that the backend answers.
func (db *Database) Ping(ctx context.Context) error {
	if db.closed.Load() {
		return fmt.Errorf("%w: pool is closed", sqlerr.ErrBackendUnavailable)
	}
	if err := db.backend.ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", sqlerr.ErrBackendUnavailable, err)
	}
	return nil
}

func (db *Database) Stats() Stats {
	s := db.backend.stats()
	s.AcquireCount = db.acquires.Load()
	return s
}

func (db *Database) Dialect() Dialect {
	return db.dialect
}

// Close closes the pool. Later Acquire calls fail with ErrBackendUnavailable.
// Closing twice is a no-op.
func (db *Database) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return nil
	}

	db.log.Info().Msg("closing database connection pool")
	db.backend.close()
	return nil
}

// conn is a checked out connection.
type conn struct {
	querier
	dc       driverConn
	released bool
}

func (c *conn) Begin(ctx context.Context) (Tx, error) {
	dt, err := c.dc.begin(ctx)
	if err != nil {
		return nil, sqlerr.Convert(err)
	}

	return newTx(querier{q: dt, dialect: c.dialect, log: c.log}, dt), nil
}

func (c *conn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.dc.release()
}

// querier runs statements through a driver and normalizes their errors.
type querier struct {
	q       driverQuerier
	dialect Dialect
	log     *queryLogger
}

func (q querier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	n, err := q.q.exec(ctx, query, args...)
	q.log.record(query, args, time.Since(start), err)
	if err != nil {
		return 0, sqlerr.Convert(err)
	}
	return n, nil
}

func (q querier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := q.q.query(ctx, query, args...)
	q.log.record(query, args, time.Since(start), err)
	if err != nil {
		return nil, sqlerr.Convert(err)
	}
	return rows, nil
}

func (q querier) Dialect() Dialect {
	return q.dialect
}
