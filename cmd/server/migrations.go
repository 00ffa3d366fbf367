package main

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/venturesim/sim-api/migrations"
)

// runMigrations brings the queue schema up to date using the embedded
// goose migrations for the selected backend.
func runMigrations(db *sql.DB, backend string) error {
	switch backend {
	case backendSQLite:
		goose.SetBaseFS(migrations.SQLite)
		if err := goose.SetDialect("sqlite3"); err != nil {
			return fmt.Errorf("failed to set goose dialect: %w", err)
		}
		if err := goose.Up(db, "sqlite"); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	case backendPostgres:
		goose.SetBaseFS(migrations.Postgres)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("failed to set goose dialect: %w", err)
		}
		if err := goose.Up(db, "postgres"); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	default:
		return fmt.Errorf("unknown database backend %q", backend)
	}
	return nil
}
