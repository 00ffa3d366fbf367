// Package task manages the in-memory work item lifecycle: queuing, worker
// assignment, concurrent execution cycles, and incrementally maintained
// status metrics. Work items live only for the life of the process; durable
// side effects go through the queue package instead.
package task
