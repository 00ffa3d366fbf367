// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing the queue and its loops to
// remain independent of the specific database backend in use.
package store
