package logger

import (
	"context"
	"log/slog"
)

// ctxKey is the private context key for the request/operation logger.
type ctxKey struct{}

// WithLogger returns a copy of ctx carrying the given logger. Callers at
// the edge of an operation attach a logger enriched with correlation
// attributes; everything downstream retrieves it with FromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the process default
// logger when none has been attached. It never returns nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
