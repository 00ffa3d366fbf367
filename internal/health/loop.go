package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LoopConfig holds configuration for the probe loop.
type LoopConfig struct {
	// Interval is how often every registered probe is checked.
	Interval time.Duration

	// FailureThreshold is the consecutive-failure count that triggers a
	// probe's recovery action.
	FailureThreshold int

	// RecoveryCooldown is the minimum time between recovery attempts for
	// the same probe.
	RecoveryCooldown time.Duration

	// CheckTimeout bounds a single probe check. Defaults to the interval
	// when zero, so one slow check can never overrun the schedule by more
	// than a tick.
	CheckTimeout time.Duration
}

// DefaultLoopConfig returns a LoopConfig with reasonable defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Interval:         30 * time.Second,
		FailureThreshold: 3,
		RecoveryCooldown: 2 * time.Minute,
	}
}

// probeState is the loop's external bookkeeping for one probe.
type probeState struct {
	failures     int
	lastRecovery time.Time
}

// Loop periodically checks registered probes and triggers bounded,
// cooled-down recovery actions when a probe's failure streak crosses the
// threshold. A failed recovery is logged, never propagated; the loop
// itself cannot crash from a misbehaving dependency.
type Loop struct {
	config LoopConfig
	logger *slog.Logger

	mu     sync.Mutex
	probes []Probe
	states map[string]*probeState

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewLoop creates a probe loop. Zero config fields fall back to
// DefaultLoopConfig values.
func NewLoop(config LoopConfig, logger *slog.Logger) *Loop {
	def := DefaultLoopConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.RecoveryCooldown <= 0 {
		config.RecoveryCooldown = def.RecoveryCooldown
	}
	if config.CheckTimeout <= 0 {
		config.CheckTimeout = config.Interval
	}

	return &Loop{
		config: config,
		logger: logger.With("component", "health_loop"),
		states: make(map[string]*probeState),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// RegisterProbe adds a probe to the loop. Probe names must be unique.
func (l *Loop) RegisterProbe(p Probe) error {
	if p.Name() == "" {
		return fmt.Errorf("probe name must not be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.states[p.Name()]; ok {
		return fmt.Errorf("probe %q already registered", p.Name())
	}
	l.probes = append(l.probes, p)
	l.states[p.Name()] = &probeState{}
	return nil
}

// Run checks every registered probe once per interval until Stop is
// called or ctx is cancelled. Shutdown happens at an interval boundary;
// an in-flight check is never interrupted.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.doneCh)

	ticker := time.NewTicker(l.config.Interval)
	defer ticker.Stop()

	l.logger.Info("probe loop started",
		"interval", l.config.Interval,
		"failure_threshold", l.config.FailureThreshold,
		"recovery_cooldown", l.config.RecoveryCooldown)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("probe loop stopped", "reason", "context cancelled")
			return
		case <-l.stopCh:
			l.logger.Info("probe loop stopped", "reason", "stop requested")
			return
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}

// Stop requests a cooperative shutdown; Run exits at the next interval
// boundary. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Done is closed once Run has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.doneCh
}

// RunOnce checks every registered probe one time and applies the
// threshold/cooldown rules. Exposed so callers and tests can drive the
// loop without real time.
func (l *Loop) RunOnce(ctx context.Context) {
	l.mu.Lock()
	probes := make([]Probe, len(l.probes))
	copy(probes, l.probes)
	l.mu.Unlock()

	for _, p := range probes {
		l.checkProbe(ctx, p)
	}
}

func (l *Loop) checkProbe(ctx context.Context, p Probe) {
	logger := l.logger.With("probe", p.Name())

	checkCtx, cancel := context.WithTimeout(ctx, l.config.CheckTimeout)
	err := p.Check(checkCtx)
	cancel()

	l.mu.Lock()
	state := l.states[p.Name()]

	if err == nil {
		if state.failures > 0 {
			logger.Info("probe recovered on its own", "previous_failures", state.failures)
		}
		state.failures = 0
		l.mu.Unlock()
		return
	}

	state.failures++
	failures := state.failures
	inCooldown := time.Since(state.lastRecovery) < l.config.RecoveryCooldown
	shouldRecover := failures >= l.config.FailureThreshold && !inCooldown
	if shouldRecover {
		// Recovery runs whether or not it ends up erroring, so the streak
		// and timestamp reset here, inside the same lock span that
		// decided to trigger it.
		state.lastRecovery = time.Now()
		state.failures = 0
	}
	l.mu.Unlock()

	logger.Warn("probe check failed", "error", err, "consecutive_failures", failures)

	if !shouldRecover {
		if failures >= l.config.FailureThreshold && inCooldown {
			logger.Debug("recovery suppressed by cooldown")
		}
		return
	}

	r, ok := recovererFor(p)
	if !ok {
		logger.Error("probe degraded past threshold with no recovery action")
		return
	}

	logger.Info("triggering recovery", "after_failures", failures)
	if recErr := r.Recover(ctx); recErr != nil {
		logger.Error("recovery failed", "error", recErr)
		return
	}
	logger.Info("recovery completed")
}

// recovererFor returns the probe's recovery action, if it has a real one.
func recovererFor(p Probe) (Recoverer, bool) {
	r, ok := p.(Recoverer)
	if !ok {
		return nil, false
	}
	if c, ok := p.(interface{ CanRecover() bool }); ok && !c.CanRecover() {
		return nil, false
	}
	return r, true
}
