package llm

import (
	"context"
	"math"
	"sync"
	"time"
)

// rpsLimiter is a token bucket refilled lazily from elapsed time. Waiters
// reserve a token up front, so they are served in arrival order and the
// bucket may go negative. A nil limiter never blocks.
type rpsLimiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newRPSLimiter(rps float64, burst int) *rpsLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &rpsLimiter{
		rate:   rps,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// reserve takes a token and reports how long the caller must wait for it.
func (l *rpsLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.tokens = math.Min(l.burst, l.tokens+now.Sub(l.last).Seconds()*l.rate)
	l.last = now
	l.tokens--
	if l.tokens >= 0 {
		return 0
	}
	return time.Duration(-l.tokens / l.rate * float64(time.Second))
}

func (l *rpsLimiter) cancel() {
	l.mu.Lock()
	l.tokens = math.Min(l.burst, l.tokens+1)
	l.mu.Unlock()
}

// Acquire blocks until a token is available or ctx ends. A caller that
// gives up returns its reservation.
func (l *rpsLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-l.stopCh:
		return context.Canceled
	default:
	}
	wait := l.reserve()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		l.cancel()
		return ctx.Err()
	case <-l.stopCh:
		l.cancel()
		return context.Canceled
	}
}

func (l *rpsLimiter) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stopCh) })
}
