// Package notify implements outbound notification delivery. Senders are
// registered as retry queue handlers, so every notification is durably
// persisted before delivery and retried on transient failure.
package notify
