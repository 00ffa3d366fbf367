// Package sqlite implements the queue's persistence interfaces on an
// embedded SQLite database. It is the default backend: one process owns
// the store file, which is all the durable retry queue needs.
package sqlite
