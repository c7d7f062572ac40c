package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_TicksUntilStopped(t *testing.T) {
	var ticks atomic.Int64
	l := New(time.Millisecond, func() { ticks.Add(1) })
	l.Start(context.Background())

	require.Eventually(t, func() bool { return ticks.Load() >= 5 }, time.Second, time.Millisecond)
	l.Stop()

	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestLoop_TicksNeverOverlap(t *testing.T) {
	var running, overlaps, ticks atomic.Int64
	l := New(time.Millisecond, func() {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		ticks.Add(1)
	})
	l.Start(context.Background())
	require.Eventually(t, func() bool { return ticks.Load() >= 5 }, time.Second, time.Millisecond)
	l.Stop()

	assert.Zero(t, overlaps.Load())
}

func TestLoop_DoRunsOnLoopGoroutine(t *testing.T) {
	// counter is only touched from the loop goroutine, so no atomics needed.
	counter := 0
	l := New(time.Millisecond, func() { counter++ })
	l.Start(context.Background())

	got := make(chan int, 1)
	require.True(t, l.Do(func() { got <- counter }))
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("queued func did not run")
	}
	l.Stop()

	assert.False(t, l.Do(func() {}))
}

func TestLoop_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int64
	l := New(time.Millisecond, func() { ticks.Add(1) })
	l.Start(ctx)
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	l.Stop()
	after := ticks.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}

func TestLoop_StopBeforeStart(t *testing.T) {
	l := New(time.Millisecond, func() { t.Fatal("tick after stop") })
	l.Stop()
	l.Start(context.Background())
	l.Stop()
	time.Sleep(5 * time.Millisecond)
}
