package worker

import (
	"context"
	"errors"
	"time"

	"github.com/coder/quartz"
	"github.com/secmon-lab/crewpulse/pkg/service/clickup"
	"github.com/secmon-lab/crewpulse/pkg/usecase"
	"github.com/secmon-lab/crewpulse/pkg/utils/logging"
)

// maxBackoff caps the retry delay so the poller always retries eventually.
const maxBackoff = 5 * time.Minute

// StatusRefreshWorker drives the scheduled snapshot refresh with adaptive
// backoff. On success the delay resets to the base interval; on failure it
// doubles, or jumps to the upstream Retry-After when that is larger,
// clamped to [base, maxBackoff].
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Manual refreshes run through the same use case but are scheduled
//   independently; a race between the two is harmless (last writer wins)
type StatusRefreshWorker struct {
	uc     *usecase.Status
	base   time.Duration
	clock  quartz.Clock
	stopCh chan struct{}
	doneCh chan struct{}
}

// Option customizes the worker
type Option func(*StatusRefreshWorker)

// WithClock injects a clock for tests.
func WithClock(clock quartz.Clock) Option {
	return func(w *StatusRefreshWorker) {
		w.clock = clock
	}
}

// NewStatusRefreshWorker creates a worker polling at the given base
// interval.
func NewStatusRefreshWorker(uc *usecase.Status, base time.Duration, opts ...Option) *StatusRefreshWorker {
	w := &StatusRefreshWorker{
		uc:     uc,
		base:   base,
		clock:  quartz.NewReal(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background refresh loop. The initial refresh also runs
// in the background so server startup is never blocked.
func (w *StatusRefreshWorker) Start(ctx context.Context) error {
	logging.Default().Info("status refresh worker starting",
		"interval", w.base.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion. An in-flight
// refresh runs to completion first.
func (w *StatusRefreshWorker) Stop() {
	logging.Default().Info("status refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("status refresh worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *StatusRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	logger := logging.From(ctx)
	delay := w.base

	for {
		if err := w.uc.Refresh(ctx); err != nil {
			delay = w.nextDelay(delay, err)
			logger.Error("scheduled refresh failed",
				"error", err.Error(),
				"next_retry", delay.String())
		} else {
			delay = w.base
		}

		timer := w.clock.NewTimer(delay)
		select {
		case <-timer.C:
		case <-w.stopCh:
			timer.Stop()
			logger.Info("status refresh worker received stop signal")
			return
		case <-ctx.Done():
			timer.Stop()
			logger.Info("status refresh worker context cancelled")
			return
		}
	}
}

// nextDelay computes the backoff after a failed refresh: the larger of the
// upstream Retry-After and twice the current delay, clamped to
// [base, maxBackoff].
func (w *StatusRefreshWorker) nextDelay(current time.Duration, err error) time.Duration {
	next := 2 * current

	var rle *clickup.RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > next {
		next = rle.RetryAfter
	}

	if next < w.base {
		next = w.base
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}
