package usecase

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// manualWindow is the rolling window for manual refresh quota accounting.
const manualWindow = time.Hour

// DefaultManualMaxPerHour is the default manual refresh quota.
const DefaultManualMaxPerHour = 20

// ManualLimiter caps user-triggered manual refreshes over a rolling
// one-hour window. It is deliberately independent of the scheduled
// refresh's backoff state: a user cannot starve the scheduled poll, nor be
// starved by it.
type ManualLimiter struct {
	mu    sync.Mutex
	clock quartz.Clock
	max   int
	calls []time.Time
}

// NewManualLimiter creates a limiter allowing max calls per hour.
func NewManualLimiter(max int, clock quartz.Clock) *ManualLimiter {
	if max <= 0 {
		max = DefaultManualMaxPerHour
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &ManualLimiter{clock: clock, max: max}
}

// prune drops timestamps that have left the trailing window. Caller must
// hold mu.
func (x *ManualLimiter) prune(now time.Time) {
	cutoff := now.Add(-manualWindow)
	kept := x.calls[:0]
	for _, t := range x.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	x.calls = kept
}

// Remaining returns how many manual refreshes are still allowed in the
// current window.
func (x *ManualLimiter) Remaining() int {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.prune(x.clock.Now())
	if n := x.max - len(x.calls); n > 0 {
		return n
	}
	return 0
}

// ResetIn returns how long until the oldest surviving call exits the
// window, or zero when no calls are recorded.
func (x *ManualLimiter) ResetIn() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()

	now := x.clock.Now()
	x.prune(now)
	if len(x.calls) == 0 {
		return 0
	}
	return x.calls[0].Add(manualWindow).Sub(now)
}

// TryAcquire consumes one slot when the window has room and reports whether
// it did. Check and consumption happen under one lock so concurrent callers
// can never overrun the quota between them.
func (x *ManualLimiter) TryAcquire() bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	now := x.clock.Now()
	x.prune(now)
	if len(x.calls) >= x.max {
		return false
	}
	x.calls = append(x.calls, now)
	return true
}

// Max returns the per-hour quota.
func (x *ManualLimiter) Max() int {
	return x.max
}
