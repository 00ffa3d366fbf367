// Package queue implements the durable retry queue for side-effecting
// operations. Items are persisted before delivery is attempted, retried
// with a bounded attempt count, and never deleted, so queued operations
// survive process restarts and transient connectivity loss while leaving
// an audit trail. Delivery is at-least-once while an item is under the
// attempt cap; past the cap the item stays failed until an operator
// intervenes.
package queue
