package database

import (
	"time"

	"github.com/rs/zerolog"
)

// queryLogger logs statements for the database/sql backends and slow
// statements for every backend. pgx statements are logged by its tracer in
// local environments, so verbose is off for Postgres.
type queryLogger struct {
	log     *zerolog.Logger
	slow    time.Duration
	verbose bool
}

func (l *queryLogger) record(query string, args []any, took time.Duration, err error) {
	if l == nil || l.log == nil {
		return
	}

	switch {
	case err != nil:
		l.log.Debug().Err(err).Str("sql", query).Dur("duration", took).Msg("query failed")
	case l.slow > 0 && took >= l.slow:
		l.log.Warn().
			Str("sql", query).
			Int("args", len(args)).
			Dur("duration", took).
			Msg("slow query")
	case l.verbose:
		l.log.Debug().Str("sql", query).Interface("args", args).Dur("duration", took).Msg("query")
	}
}
