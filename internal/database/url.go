package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const sqliteBusyTimeoutMS = 5000

// Target is a parsed database URL.
type Target struct {
	Dialect Dialect

	// DSN is the connection string in the format the driver expects.
	DSN string

	// Memory is set for sqlite://:memory:, which must stay on one connection
	// because every new connection would open an empty database.
	Memory bool
}

// ParseURL picks the driver for raw and converts it into a driver DSN.
func ParseURL(raw string) (Target, error) {
	if raw == "" {
		return Target{}, errors.New("database url is empty")
	}

	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("database url %q has no scheme", raw)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		if _, err := url.Parse(raw); err != nil {
			return Target{}, fmt.Errorf("invalid postgres url: %w", err)
		}
		return Target{Dialect: Postgres, DSN: raw}, nil

	case "mysql":
		dsn, err := mysqlDSN(raw)
		if err != nil {
			return Target{}, err
		}
		return Target{Dialect: MySQL, DSN: dsn}, nil

	case "sqlite", "sqlite3":
		return sqliteTarget(raw[len(scheme)+len("://"):])

	default:
		return Target{}, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

func mysqlDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.DBName == "" {
		return "", errors.New("mysql url must name a database")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	cfg.ParseTime = true
	for key, values := range u.Query() {
		if len(values) > 0 {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			cfg.Params[key] = values[0]
		}
	}

	return cfg.FormatDSN(), nil
}

func sqliteTarget(rest string) (Target, error) {
	path, query, _ := strings.Cut(rest, "?")
	if path == "" {
		return Target{}, errors.New("sqlite url must name a file or :memory:")
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return Target{}, fmt.Errorf("invalid sqlite url parameters: %w", err)
	}

	pragmas := strings.Join(values["_pragma"], ",")
	if !strings.Contains(pragmas, "foreign_keys") {
		values.Add("_pragma", "foreign_keys(1)")
	}
	if !strings.Contains(pragmas, "busy_timeout") {
		values.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", sqliteBusyTimeoutMS))
	}

	return Target{
		Dialect: SQLite,
		DSN:     "file:" + path + "?" + values.Encode(),
		Memory:  path == ":memory:",
	}, nil
}
