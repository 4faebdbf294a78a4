package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     time.Duration
}

func (r *countingRefresher) RefreshOnce(ctx context.Context) CycleReport {
	r.calls.Add(1)
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		cur := r.maxSeen.Load()
		if n <= cur || r.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	select {
	case <-time.After(r.hold):
	case <-ctx.Done():
	}
	return CycleReport{Outcome: OutcomeSuccess}
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(r, 20*time.Millisecond, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())

	calls := r.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, r.calls.Load(), "no cycles after Stop")
}

func TestScheduler_CyclesOverlap(t *testing.T) {
	r := &countingRefresher{hold: 200 * time.Millisecond}
	s := NewScheduler(r, 20*time.Millisecond, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return r.maxSeen.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	// Stop waits for in-flight cycles
	assert.Equal(t, int32(0), r.inFlight.Load())
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, time.Hour, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerRunning)
}

func TestScheduler_ContextCancel(t *testing.T) {
	r := &countingRefresher{}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(r, time.Hour, nil)

	require.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Stop()
	s.Stop() // idempotent
}
