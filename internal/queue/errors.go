package queue

import "errors"

// Common errors returned by the retry queue.
var (
	// ErrNoHandler marks a permanent failure: the item's task type has no
	// registered handler. The item is marked failed without consuming an
	// attempt, since nothing was tried.
	ErrNoHandler = errors.New("no handler registered for task type")

	// ErrHandlerExists is returned when registering a second handler for
	// the same task type.
	ErrHandlerExists = errors.New("handler already registered for task type")

	// ErrPayloadSchema marks a payload that does not decode against the
	// versioned envelope schema. Distinct from a handler failure: the row
	// is data-bad, not link-bad.
	ErrPayloadSchema = errors.New("payload does not match envelope schema")
)
