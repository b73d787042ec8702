// Package sqlstore implements store.Store over database/sql for SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/libraryhub/library-server/internal/store"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Config selects the database and its connection pool.
type Config struct {
	Driver string
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN          string
	MaxOpenConns int
}

// Store provides SQL-backed persistence for the library server.
type Store struct {
	*queries

	db     *sqlx.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// queries runs statements against either the pool or an open transaction.
type queries struct {
	ex      sqlx.ExtContext
	dialect goqu.DialectWrapper
	driver  string
}

// Open connects to the configured database, sets up the pool and applies
// the embedded schema. The schema is idempotent.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		driverName = cfg.Driver
		dsn        = cfg.DSN
		dialect    string
		schema     string
	)
	switch cfg.Driver {
	case DriverSQLite:
		dsn = sqliteDSN(cfg.DSN)
		dialect = "sqlite3"
		schema = sqliteSchema
	case DriverPostgres:
		dialect = "postgres"
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen < 1 {
		maxOpen = 4
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(1, maxOpen/2))
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	logger.Debug("database opened", "driver", cfg.Driver, "max_open_conns", maxOpen)

	return &Store{
		queries: &queries{
			ex:      db,
			dialect: goqu.Dialect(dialect),
			driver:  cfg.Driver,
		},
		db:     db,
		logger: logger,
	}, nil
}

// sqliteDSN turns a file path into a modernc DSN carrying the pragmas every
// pooled connection needs. DSNs that already carry parameters are kept.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=foreign_keys(ON)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
	}
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(q store.Queries) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
				s.logger.Warn("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(&queries{ex: tx, dialect: s.dialect, driver: s.driver}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
