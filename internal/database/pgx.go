package database

import (
	"context"
	"fmt"

	"github.com/deppfellow/bookshelf/internal/config"
	loggerConfig "github.com/deppfellow/bookshelf/internal/logger"
	"github.com/deppfellow/bookshelf/internal/sqlerr"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

// multiTracer fans pgx trace callbacks out to several tracers, since
// ConnConfig only has room for one.
type multiTracer struct {
	tracers []any
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryStart(context.Context, *pgx.Conn, pgx.TraceQueryStartData) context.Context
		}); ok {
			ctx = t.TraceQueryStart(ctx, conn, data)
		}
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		if t, ok := tracer.(interface {
			TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData)
		}); ok {
			t.TraceQueryEnd(ctx, conn, data)
		}
	}
}

type pgxBackend struct {
	pool *pgxpool.Pool
}

func newPgxBackend(
	target Target,
	cfg *config.Config,
	logger *zerolog.Logger,
	loggerService *loggerConfig.LoggerService,
) (*pgxBackend, error) {
	pgxPoolConfig, err := pgxpool.ParseConfig(target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	pgxPoolConfig.MaxConns = int32(cfg.Database.MaxConns)
	if cfg.Database.ConnMaxLifetime > 0 {
		pgxPoolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pgxPoolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}

	if loggerService != nil && loggerService.GetApplication() != nil {
		pgxPoolConfig.ConnConfig.Tracer = nrpgx5.NewTracer()
	}

	// SQL logging is noisy, keep it to local development.
	if cfg.Primary.Env == "local" {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)

		localTracer := &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: tracelog.LogLevel(loggerConfig.GetPgxTraceLogLevel(globalLevel)),
		}

		if pgxPoolConfig.ConnConfig.Tracer != nil {
			pgxPoolConfig.ConnConfig.Tracer = &multiTracer{
				tracers: []any{pgxPoolConfig.ConnConfig.Tracer, localTracer},
			}
		} else {
			pgxPoolConfig.ConnConfig.Tracer = localTracer
		}
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), pgxPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	return &pgxBackend{pool: pool}, nil
}

func (b *pgxBackend) acquire(ctx context.Context) (driverConn, error) {
	c, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: c}, nil
}

func (b *pgxBackend) ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *pgxBackend) stats() Stats {
	s := b.pool.Stat()
	return Stats{
		MaxConns:   int64(s.MaxConns()),
		TotalConns: int64(s.TotalConns()),
		InUse:      int64(s.AcquiredConns()),
		Idle:       int64(s.IdleConns()),
		WaitCount:  s.EmptyAcquireCount(),
	}
}

func (b *pgxBackend) close() {
	b.pool.Close()
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c *pgxConn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *pgxConn) query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows}, nil
}

func (c *pgxConn) begin(ctx context.Context) (driverTx, error) {
	t, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: t}, nil
}

func (c *pgxConn) release() {
	c.conn.Release()
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgxTx) query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows}, nil
}

func (t *pgxTx) commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// pgxRows reports server errors that pgx defers until iteration ends.
type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Err() error {
	return sqlerr.Convert(r.Rows.Err())
}

func (r pgxRows) Close() {
	r.Rows.Close()
}
