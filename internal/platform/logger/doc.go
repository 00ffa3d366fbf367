// Package logger provides structured logging functionality for the
// application, built on log/slog with JSON output. It also carries a
// per-operation logger through context.Context so persistence and queue
// code can log with the caller's correlation attributes.
package logger
