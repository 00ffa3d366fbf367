package task

// MetricsSnapshot is a point-in-time copy of the dispatcher's running
// counters. Counters are maintained incrementally on every state
// transition, so taking a snapshot never scans the backlog.
type MetricsSnapshot struct {
	TasksCompleted int64
	TasksFailed    int64
	TasksPending   int64
	TasksByStatus  map[Status]int64
}

// metrics holds the live counters. All mutation happens inside the
// dispatcher's critical section, in the same lock span as the state change
// it records, so the counters can never drift from item state.
type metrics struct {
	completed int64
	failed    int64
	pending   int64
	byStatus  map[Status]int64
}

func newMetrics() metrics {
	return metrics{
		byStatus: make(map[Status]int64),
	}
}

// recordAdmit counts a newly added item.
func (m *metrics) recordAdmit(s Status) {
	m.byStatus[s]++
	if s == StatusPending {
		m.pending++
	}
}

// recordTransition moves one item's worth of count from one status to
// another.
func (m *metrics) recordTransition(from, to Status) {
	m.byStatus[from]--
	m.byStatus[to]++

	if from == StatusPending {
		m.pending--
	}
	switch to {
	case StatusPending:
		m.pending++
	case StatusCompleted:
		m.completed++
	case StatusFailed:
		m.failed++
	}
}

// snapshot copies the counters. Cost is proportional to the number of
// distinct statuses, not the number of items.
func (m *metrics) snapshot() MetricsSnapshot {
	by := make(map[Status]int64, len(m.byStatus))
	for s, n := range m.byStatus {
		by[s] = n
	}
	return MetricsSnapshot{
		TasksCompleted: m.completed,
		TasksFailed:    m.failed,
		TasksPending:   m.pending,
		TasksByStatus:  by,
	}
}
