package health

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestLoop(t *testing.T, cfg LoopConfig) *Loop {
	t.Helper()
	return NewLoop(cfg, setupTestLogger())
}

func TestRegisterProbeValidation(t *testing.T) {
	l := newTestLoop(t, LoopConfig{})

	assert.Error(t, l.RegisterProbe(ProbeFunc{
		CheckFn: func(ctx context.Context) error { return nil },
	}))

	probe := ProbeFunc{
		ProbeName: "db",
		CheckFn:   func(ctx context.Context) error { return nil },
	}
	require.NoError(t, l.RegisterProbe(probe))
	assert.Error(t, l.RegisterProbe(probe))
}

func TestRecoveryTriggersAtFailureThreshold(t *testing.T) {
	recoveries := 0
	l := newTestLoop(t, LoopConfig{FailureThreshold: 3})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "db",
		CheckFn:   func(ctx context.Context) error { return errors.New("down") },
		RecoverFn: func(ctx context.Context) error { recoveries++; return nil },
	}))

	l.RunOnce(context.Background())
	l.RunOnce(context.Background())
	assert.Zero(t, recoveries, "below threshold, nothing should trigger")

	l.RunOnce(context.Background())
	assert.Equal(t, 1, recoveries)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	recoveries := 0
	healthy := false
	l := newTestLoop(t, LoopConfig{FailureThreshold: 3})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "db",
		CheckFn: func(ctx context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		},
		RecoverFn: func(ctx context.Context) error { recoveries++; return nil },
	}))

	// Two failures, one success, two more failures: never three in a row.
	l.RunOnce(context.Background())
	l.RunOnce(context.Background())
	healthy = true
	l.RunOnce(context.Background())
	healthy = false
	l.RunOnce(context.Background())
	l.RunOnce(context.Background())

	assert.Zero(t, recoveries)
}

func TestCooldownBoundsRecoveryFrequency(t *testing.T) {
	recoveries := 0
	l := newTestLoop(t, LoopConfig{FailureThreshold: 1, RecoveryCooldown: time.Hour})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "db",
		CheckFn:   func(ctx context.Context) error { return errors.New("down") },
		RecoverFn: func(ctx context.Context) error { recoveries++; return nil },
	}))

	for i := 0; i < 10; i++ {
		l.RunOnce(context.Background())
	}

	assert.Equal(t, 1, recoveries, "cooldown allows at most one recovery per window")
}

func TestFailedRecoveryStillConsumesCooldown(t *testing.T) {
	recoveries := 0
	l := newTestLoop(t, LoopConfig{FailureThreshold: 1, RecoveryCooldown: time.Hour})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "db",
		CheckFn:   func(ctx context.Context) error { return errors.New("down") },
		RecoverFn: func(ctx context.Context) error {
			recoveries++
			return errors.New("restart failed")
		},
	}))

	l.RunOnce(context.Background())
	l.RunOnce(context.Background())

	assert.Equal(t, 1, recoveries)
}

func TestObserveOnlyProbeNeverRecovers(t *testing.T) {
	checks := 0
	l := newTestLoop(t, LoopConfig{FailureThreshold: 1})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "upstream",
		CheckFn: func(ctx context.Context) error {
			checks++
			return errors.New("down")
		},
	}))

	// Past the threshold with no RecoverFn: the loop keeps checking and
	// does not panic.
	for i := 0; i < 5; i++ {
		l.RunOnce(context.Background())
	}
	assert.Equal(t, 5, checks)
}

func TestProbesAreIndependent(t *testing.T) {
	dbRecoveries, cacheRecoveries := 0, 0
	l := newTestLoop(t, LoopConfig{FailureThreshold: 2})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "db",
		CheckFn:   func(ctx context.Context) error { return errors.New("down") },
		RecoverFn: func(ctx context.Context) error { dbRecoveries++; return nil },
	}))
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "cache",
		CheckFn:   func(ctx context.Context) error { return nil },
		RecoverFn: func(ctx context.Context) error { cacheRecoveries++; return nil },
	}))

	l.RunOnce(context.Background())
	l.RunOnce(context.Background())

	assert.Equal(t, 1, dbRecoveries)
	assert.Zero(t, cacheRecoveries)
}

func TestCheckTimeoutBoundsSlowChecks(t *testing.T) {
	l := newTestLoop(t, LoopConfig{CheckTimeout: 20 * time.Millisecond})
	require.NoError(t, l.RegisterProbe(ProbeFunc{
		ProbeName: "slow",
		CheckFn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	start := time.Now()
	l.RunOnce(context.Background())
	assert.Less(t, time.Since(start), time.Second)
}

func TestStopShutsDownLoop(t *testing.T) {
	l := newTestLoop(t, LoopConfig{Interval: time.Hour})

	go l.Run(context.Background())
	l.Stop()
	l.Stop() // idempotent

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("probe loop did not stop")
	}
}

func TestContextCancellationShutsDownLoop(t *testing.T) {
	l := newTestLoop(t, LoopConfig{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("probe loop did not stop")
	}
}
