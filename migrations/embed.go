// Package migrations embeds the goose migration files for each supported
// database backend so the binary can migrate its own schema at startup.
package migrations

import "embed"

// SQLite holds the migrations for the embedded SQLite backend.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres holds the migrations for the PostgreSQL backend.
//
//go:embed postgres/*.sql
var Postgres embed.FS
