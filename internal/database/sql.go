package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/sqlerr"

	// Registers the "mysql" driver.
	_ "github.com/go-sql-driver/mysql"
	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

// sqlBackend serves MySQL and SQLite through database/sql.
type sqlBackend struct {
	db *sql.DB
}

func newSQLBackend(target Target, cfg *config.DatabaseConfig) (*sqlBackend, error) {
	db, err := sql.Open(string(target.Dialect), target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", target.Dialect, err)
	}

	maxConns := cfg.MaxConns
	if target.Memory {
		maxConns = 1
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &sqlBackend{db: db}, nil
}

func (b *sqlBackend) acquire(ctx context.Context) (driverConn, error) {
	c, err := b.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: c}, nil
}

func (b *sqlBackend) ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) stats() Stats {
	s := b.db.Stats()
	return Stats{
		MaxConns:   int64(s.MaxOpenConnections),
		TotalConns: int64(s.OpenConnections),
		InUse:      int64(s.InUse),
		Idle:       int64(s.Idle),
		WaitCount:  s.WaitCount,
	}
}

func (b *sqlBackend) close() {
	_ = b.db.Close()
}

type sqlConn struct {
	conn *sql.Conn
}

func (c *sqlConn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execResult(c.conn.ExecContext(ctx, query, args...))
}

func (c *sqlConn) query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c *sqlConn) begin(ctx context.Context) (driverTx, error) {
	t, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: t}, nil
}

// release hands the connection back to the database/sql pool.
func (c *sqlConn) release() {
	_ = c.conn.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execResult(t.tx.ExecContext(ctx, query, args...))
}

func (t *sqlTx) query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (t *sqlTx) commit(context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) rollback(context.Context) error {
	return t.tx.Rollback()
}

func execResult(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Err() error {
	return sqlerr.Convert(r.Rows.Err())
}

func (r sqlRows) Close() {
	_ = r.Rows.Close()
}
