package health

import "context"

// Probe is a stateless health check for one monitored dependency. Failure
// streaks and cooldown timestamps are tracked by the Loop, keyed by the
// probe's name, so implementations stay plain contract objects.
type Probe interface {
	// Name identifies the probe in logs and in the loop's bookkeeping.
	// Names must be unique within a Loop.
	Name() string

	// Check reports the dependency's health. A nil return is healthy.
	// Checks should be cheap; the loop bounds each one with a deadline.
	Check(ctx context.Context) error
}

// Recoverer is optionally implemented by probes that can attempt to heal
// their dependency. Probes without it are observe-only: their failures
// are logged but nothing is triggered.
type Recoverer interface {
	// Recover attempts to restore the dependency. An error is logged by
	// the loop but never propagated or retried outside the cooldown.
	Recover(ctx context.Context) error
}

// ProbeFunc adapts plain functions into a Probe.
type ProbeFunc struct {
	ProbeName string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Name implements Probe.
func (p ProbeFunc) Name() string { return p.ProbeName }

// Check implements Probe.
func (p ProbeFunc) Check(ctx context.Context) error { return p.CheckFn(ctx) }

// Recover implements Recoverer. Probes built without a RecoverFn report
// that they cannot recover via CanRecover.
func (p ProbeFunc) Recover(ctx context.Context) error {
	if p.RecoverFn == nil {
		return nil
	}
	return p.RecoverFn(ctx)
}

// CanRecover reports whether a recovery action was provided.
func (p ProbeFunc) CanRecover() bool { return p.RecoverFn != nil }
