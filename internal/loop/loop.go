// Package loop drives a frame callback on a single goroutine.
package loop

import (
	"context"
	"sync"
	"time"
)

// Loop calls tick once per interval. The next frame is scheduled only after
// the current tick returns, so ticks never overlap. Work queued with Do runs
// on the same goroutine between ticks.
type Loop struct {
	interval time.Duration
	tick     func()

	cmds chan func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func New(interval time.Duration, tick func()) *Loop {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &Loop{
		interval: interval,
		tick:     tick,
		cmds:     make(chan func(), 64),
	}
}

// Start launches the loop goroutine. It is a no-op if the loop is already
// running or was stopped.
func (l *Loop) Start(parent context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	timer := time.NewTimer(l.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.cmds:
			fn()
		case <-timer.C:
			// Cancellation wins over a frame that became due at the same time.
			if ctx.Err() != nil {
				return
			}
			l.tick()
			timer.Reset(l.interval)
		}
	}
}

// Do queues fn to run on the loop goroutine. It returns false if the loop
// has been stopped or the queue is full.
func (l *Loop) Do(fn func()) bool {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return false
	}
	select {
	case l.cmds <- fn:
		return true
	default:
		return false
	}
}

// Stop cancels the pending frame and waits for the loop goroutine to exit.
// No tick runs after Stop returns. It is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Loop) Interval() time.Duration { return l.interval }
