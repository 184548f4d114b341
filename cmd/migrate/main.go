// migrate applies, reverts or reports the database schema migrations for
// the configured store.
//
//	go run ./cmd/migrate --config=config/local.yaml up
//	go run ./cmd/migrate --config=config/local.yaml down
//	go run ./cmd/migrate --config=config/local.yaml status
//	go run ./cmd/migrate --config=config/local.yaml version
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aanand-mishra/employee-api/internal/config"
	"github.com/aanand-mishra/employee-api/internal/storage/postgres"
	"github.com/aanand-mishra/employee-api/internal/storage/sqlite"
	"github.com/aanand-mishra/employee-api/internal/storage/sqlstore"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to the configuration YAML file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("Usage: migrate [--config=path] COMMAND\n\nCommands:\n  up\n  down\n  status\n  version")
	}
	if *configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, dialect, err := open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch command := args[0]; command {
	case "up":
		err = sqlstore.Migrate(db, dialect)
	case "down":
		err = sqlstore.Rollback(db, dialect)
	case "status":
		err = sqlstore.Status(db, dialect)
	case "version":
		var v int64
		if v, err = sqlstore.Version(db, dialect); err == nil {
			fmt.Printf("schema version: %d\n", v)
		}
	default:
		log.Fatalf("Unknown command: %s", command)
	}

	if err != nil {
		log.Fatalf("Migration %s failed: %v", args[0], err)
	}
}

func open(cfg *config.Config) (*sql.DB, sqlstore.Dialect, error) {
	if cfg.Storage.Driver == config.DriverPostgres {
		db, err := postgres.OpenDB(cfg.Storage.DSN, 1)
		return db, postgres.Dialect, err
	}

	db, err := sqlite.OpenDB(cfg.Storage.Path)
	return db, sqlite.Dialect, err
}
