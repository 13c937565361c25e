package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// Migration files live in one directory per dialect. Postgres files follow
// tern's format; MySQL and SQLite files are idempotent DDL applied in name
// order on every start.
//
//go:embed migrations
var migrations embed.FS

// Migrate brings the schema of db up to date.
func Migrate(ctx context.Context, logger *zerolog.Logger, db *Database) error {
	switch db.Dialect() {
	case Postgres:
		return migratePostgres(ctx, logger, db)
	default:
		return migrateDDL(ctx, logger, db)
	}
}

func migratePostgres(ctx context.Context, logger *zerolog.Logger, db *Database) error {
	b, ok := db.backend.(*pgxBackend)
	if !ok {
		return errors.New("postgres database without a pgx pool")
	}

	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return classifyAcquireError(err)
	}
	defer conn.Release()

	m, err := tern.NewMigrator(ctx, conn.Conn(), "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

func migrateDDL(ctx context.Context, logger *zerolog.Logger, db *Database) error {
	dir := path.Join("migrations", string(db.Dialect()))

	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("reading %s migrations: %w", db.Dialect(), err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	_, err = WithConn(ctx, db, func(c Conn) (struct{}, error) {
		for _, name := range names {
			b, err := migrations.ReadFile(path.Join(dir, name))
			if err != nil {
				return struct{}{}, err
			}

			for _, stmt := range splitStatements(string(b)) {
				if _, err := c.Exec(ctx, stmt); err != nil {
					return struct{}{}, fmt.Errorf("applying %s: %w", name, err)
				}
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	logger.Info().Str("driver", string(db.Dialect())).Msgf("database schema applied, %d files", len(names))
	return nil
}

// splitStatements splits a DDL file on semicolons. The files contain no
// string literals or procedures, so a plain split is enough.
func splitStatements(src string) []string {
	var res []string
	for _, stmt := range strings.Split(src, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			res = append(res, stmt)
		}
	}
	return res
}
