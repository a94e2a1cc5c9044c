// Package database opens the SQL connection pool described by DATABASE_URL
// and creates the tables the SQL store needs.
package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL engine behind a pool.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Pool settings.
const (
	maxOpenConns   = 20
	maxIdleConns   = 5
	connIdleReap   = 30 * time.Second
	connectTimeout = 10 * time.Second
)

// ErrMissingURL is returned when no connection string was configured.
var ErrMissingURL = errors.New("DATABASE_URL is required")

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Target is a parsed connection string.
type Target struct {
	Dialect Dialect
	Driver  string // database/sql driver name
	DSN     string // driver specific data source name
}

// ParseURL validates raw and converts it to a driver DSN. Supported schemes
// are postgres/postgresql, mysql and sqlite.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("malformed DATABASE_URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		if u.Hostname() == "" {
			return Target{}, errors.New("malformed DATABASE_URL: missing host")
		}
		q := u.Query()
		if q.Get("connect_timeout") == "" {
			q.Set("connect_timeout", fmt.Sprint(int(connectTimeout.Seconds())))
		}
		u.RawQuery = q.Encode()
		return Target{Dialect: Postgres, Driver: "postgres", DSN: u.String()}, nil

	case "mysql":
		if u.Hostname() == "" {
			return Target{}, errors.New("malformed DATABASE_URL: missing host")
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return Target{}, errors.New("malformed DATABASE_URL: missing database name")
		}
		cfg := mysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if u.Port() == "" {
			cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
		}
		cfg.DBName = name
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		cfg.ParseTime = true // DATETIME -> time.Time
		cfg.Loc = time.UTC
		cfg.Timeout = connectTimeout
		for k, v := range u.Query() {
			if len(v) == 0 {
				continue
			}
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			cfg.Params[k] = v[0]
		}
		return Target{Dialect: MySQL, Driver: "mysql", DSN: cfg.FormatDSN()}, nil

	case "sqlite":
		path := u.Opaque
		if path == "" {
			path = u.Host + u.Path
		}
		if path == "" {
			return Target{}, errors.New("malformed DATABASE_URL: missing sqlite path")
		}
		dsn := path
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		} else {
			dsn += "?_pragma=busy_timeout(10000)&_time_format=sqlite"
		}
		return Target{Dialect: SQLite, Driver: "sqlite", DSN: dsn}, nil

	case "":
		return Target{}, errors.New("malformed DATABASE_URL: missing scheme")
	default:
		return Target{}, fmt.Errorf("malformed DATABASE_URL: unsupported scheme %q", u.Scheme)
	}
}

// Open parses raw, connects and verifies the connection. It fails fast on a
// malformed URL or an unreachable server.
func Open(ctx context.Context, raw string) (*sqlx.DB, Dialect, error) {
	t, err := ParseURL(raw)
	if err != nil {
		return nil, "", err
	}
	db, err := sqlx.Open(t.Driver, t.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", t.Dialect, err)
	}

	// Pool settings
	if t.Dialect == SQLite {
		// one connection so an in-memory database is shared and never reaped
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxIdleTime(connIdleReap)
	}

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", t.Dialect, err)
	}
	return db, t.Dialect, nil
}

// DialectOf maps a sqlx driver name back to its dialect.
func DialectOf(db *sqlx.DB) Dialect {
	switch db.DriverName() {
	case "postgres", "pgx":
		return Postgres
	case "mysql":
		return MySQL
	default:
		return SQLite
	}
}
