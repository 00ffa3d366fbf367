// Package postgres implements the queue's persistence interfaces on
// PostgreSQL, as an alternative to the default embedded SQLite backend
// for deployments that already operate a database server.
package postgres
