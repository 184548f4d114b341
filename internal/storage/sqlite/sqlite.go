// Package sqlite provides the SQLite-backed storage using Go's standard
// database/sql package and the mattn/go-sqlite3 driver.
//
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver, which makes it the default store and the one the tests use.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/employee-api/internal/config"
	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/storage/sqlstore"

	// Registers the "sqlite3" driver with database/sql.
	"github.com/mattn/go-sqlite3"
)

// Dialect is the SQLite flavour of the shared SQL repository.
var Dialect = sqlstore.Dialect{
	Goose:                 "sqlite3",
	Numbered:              false,
	IsForeignKeyViolation: isForeignKeyViolation,
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// New opens the SQLite database at cfg.Storage.Path and migrates it.
func New(cfg *config.Config) (*storage.Storage, error) {
	return Open(cfg.Storage.Path, cfg.Storage.MaxOpenConns)
}

// Open opens (creating if needed) the database file at path, applies
// pending migrations and returns the repositories.
func Open(path string, maxOpenConns int) (*storage.Storage, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}

	if err := sqlstore.Migrate(db, Dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: %w", err)
	}

	return sqlstore.New(db, Dialect), nil
}

// OpenDB opens the raw connection pool. Foreign keys are enforced on
// every connection; WAL lets readers run while a write is in progress.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.Open: create dir: %w", err)
		}
	}

	// sql.Open does NOT open a real connection yet; it only validates
	// the driver name and data source name (DSN).
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: ping: %w", err)
	}

	return db, nil
}
