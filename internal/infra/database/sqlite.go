package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/instalite/internal/infra/database/migrations"
	"github.com/mkrupp/instalite/internal/infra/logging"
)

// SQLiteConfig holds configuration for the SQLite database.
type SQLiteConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/instalite.db"`

	// BusyTimeout is how long a connection waits for a lock held by another connection
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" default:"5m"`
}

// SQLite is a database handle shared by the repositories.
// go-sqlite does not support concurrent writes, so writers go through WithWriteLock.
type SQLite struct {
	*sql.DB

	log       logging.Logger
	writeLock sync.Mutex
}

// NewSQLite wraps an already opened database handle without touching its schema.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{
		DB:  db,
		log: logging.GetLogger("infra.database.sqlite"),
	}
}

// OpenSQLite opens the database file, creating its directory if needed,
// and applies all pending schema migrations.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (_ *SQLite, err error) {
	log := logging.GetLogger("infra.database.sqlite").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "open db failed", "error", err)
		} else {
			log.DebugContext(ctx, "db opened")
		}
	}()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir all: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	sqliteDB := &SQLite{DB: db, log: log}

	if err := sqliteDB.Migrate(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	return sqliteDB, nil
}

// Migrate applies all pending migrations embedded in the migrations package.
func (db *SQLite) Migrate(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, migrations.FS)
	if err != nil {
		return fmt.Errorf("new goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	for _, result := range results {
		db.log.InfoContext(ctx, "migration applied", logging.Group("migration",
			"version", result.Source.Version,
			"path", result.Source.Path,
			"duration", result.Duration,
		))
	}

	return nil
}

// WithWriteLock runs fn while holding the database write lock.
func (db *SQLite) WithWriteLock(fn func() error) error {
	db.writeLock.Lock()
	defer db.writeLock.Unlock()

	return fn()
}

//nolint:gochecknoglobals
var uniqueColumnRe = regexp.MustCompile(`UNIQUE constraint failed: ([\w.]+)`)

// UniqueViolation reports whether err was caused by a UNIQUE or PRIMARY KEY
// constraint. The returned column is "table.column" when SQLite names it.
func UniqueViolation(err error) (column string, ok bool) {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return "", false
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
	default:
		return "", false
	}

	if m := uniqueColumnRe.FindStringSubmatch(liteErr.Error()); m != nil {
		column = m[1]
	}

	return column, true
}
