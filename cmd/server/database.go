package main

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/venturesim/sim-api/internal/platform/postgres"
	"github.com/venturesim/sim-api/internal/platform/sqlite"
)

// Supported database backends.
const (
	backendSQLite   = "sqlite"
	backendPostgres = "postgres"
)

// setupDatabase opens the queue's backing store. A postgres:// URL selects
// the PostgreSQL backend; anything else is treated as a SQLite file path.
func setupDatabase(url string, logger *slog.Logger) (*sql.DB, string, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		db, err := postgres.Open(url)
		if err != nil {
			return nil, "", err
		}
		logger.Info("database connection established", "backend", backendPostgres)
		return db, backendPostgres, nil
	}

	db, err := sqlite.Open(url)
	if err != nil {
		return nil, "", err
	}
	logger.Info("database connection established", "backend", backendSQLite, "path", url)
	return db, backendSQLite, nil
}
