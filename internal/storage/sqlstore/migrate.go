package sqlstore

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

// Migrations holds one directory of goose SQL files per dialect, named
// after the goose dialect ("sqlite3", "postgres").
//
//go:embed migrations
var Migrations embed.FS

// gooseLogger forwards goose progress lines to slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func prepareGoose(dialect Dialect) (string, error) {
	goose.SetBaseFS(Migrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect(dialect.Goose); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}

	return "migrations/" + dialect.Goose, nil
}

// Migrate applies every pending migration for dialect.
func Migrate(db *sql.DB, dialect Dialect) error {
	dir, err := prepareGoose(dialect)
	if err != nil {
		return err
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Rollback reverts the most recent migration.
func Rollback(db *sql.DB, dialect Dialect) error {
	dir, err := prepareGoose(dialect)
	if err != nil {
		return err
	}

	if err := goose.Down(db, dir); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	return nil
}

// Status prints the state of every migration through the goose logger.
func Status(db *sql.DB, dialect Dialect) error {
	dir, err := prepareGoose(dialect)
	if err != nil {
		return err
	}

	if err := goose.Status(db, dir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	return nil
}

// Version returns the current schema version.
func Version(db *sql.DB, dialect Dialect) (int64, error) {
	if _, err := prepareGoose(dialect); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}

	return version, nil
}
