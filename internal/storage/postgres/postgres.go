// Package postgres provides the PostgreSQL-backed storage. Connections go
// through pgx's database/sql adapter so the shared SQL repository and the
// goose migrations work unchanged.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aanand-mishra/employee-api/internal/config"
	"github.com/aanand-mishra/employee-api/internal/storage"
	"github.com/aanand-mishra/employee-api/internal/storage/sqlstore"

	// Registers the "pgx" driver with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect is the PostgreSQL flavour of the shared SQL repository.
var Dialect = sqlstore.Dialect{
	Goose:                 "postgres",
	Numbered:              true,
	IsForeignKeyViolation: isForeignKeyViolation,
}

// SQLSTATE foreign_key_violation.
const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

// New connects to cfg.Storage.DSN and migrates the schema.
func New(cfg *config.Config) (*storage.Storage, error) {
	db, err := OpenDB(cfg.Storage.DSN, cfg.Storage.MaxOpenConns)
	if err != nil {
		return nil, err
	}

	if err := sqlstore.Migrate(db, Dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	return sqlstore.New(db, Dialect), nil
}

// OpenDB opens and pings the pool.
func OpenDB(dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: open db: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}

	return db, nil
}
