// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Ctx returns a context canceled when the test ends.
func Ctx(tb testing.TB) context.Context {
	tb.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	tb.Cleanup(cancel)

	return ctx
}

// Logger returns a logger writing through tb.Log.
func Logger(tb testing.TB) *zerolog.Logger {
	tb.Helper()

	l := zerolog.New(zerolog.NewTestWriter(tb)).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return &l
}

// Config returns a minimal valid configuration pointing at databaseURL.
func Config(tb testing.TB, databaseURL string) *config.Config {
	tb.Helper()

	return &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			ReadTimeout:        5,
			WriteTimeout:       5,
			IdleTimeout:        5,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{
			URL:      databaseURL,
			MaxConns: 4,
		},
		Observability: config.DefaultObservabilityConfig(),
	}
}

// SQLiteURL returns the URL of a fresh SQLite file in tb's temporary directory.
func SQLiteURL(tb testing.TB) string {
	tb.Helper()

	return "sqlite://" + filepath.Join(tb.TempDir(), "bookshelf.db")
}

// Database opens a migrated SQLite database private to tb. mutate, when not
// nil, may change the configuration before the pool is opened.
func Database(tb testing.TB, mutate ...func(*config.Config)) *database.Database {
	tb.Helper()

	cfg := Config(tb, SQLiteURL(tb))
	for _, m := range mutate {
		m(cfg)
	}

	l := Logger(tb)

	db, err := database.New(cfg, l, nil)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })

	require.NoError(tb, database.Migrate(Ctx(tb), l, db))

	return db
}

// Server builds an application container over a migrated SQLite database
// private to tb. Redis, auth and New Relic stay disabled.
func Server(tb testing.TB, mutate ...func(*config.Config)) *server.Server {
	tb.Helper()

	cfg := Config(tb, SQLiteURL(tb))
	for _, m := range mutate {
		m(cfg)
	}

	l := Logger(tb)

	s, err := server.New(cfg, l, nil)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	require.NoError(tb, database.Migrate(Ctx(tb), l, s.DB))

	return s
}
