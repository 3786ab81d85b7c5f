package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/secmon-lab/crewpulse/pkg/service/clickup"
	"github.com/secmon-lab/crewpulse/pkg/utils/logging"
)

// Status owns the single authoritative snapshot of the team's working
// state. The snapshot is rebuilt as a whole by Refresh and swapped in under
// a short lock; readers always get the last fully completed refresh's
// result. A scheduled refresh and a manual one may race; whichever
// completes last wins, which is accepted as eventually consistent.
type Status struct {
	svc        clickup.Service // nil enables mock mode
	prober     *clickup.Prober
	probeLimit int
	manualMax  int
	dashboard  *model.Dashboard
	clock      quartz.Clock
	limiter    *ManualLimiter

	mu     sync.RWMutex
	snap   *model.Snapshot
	selfID types.UserID
}

// StatusOption customizes a Status use case
type StatusOption func(*Status)

// WithDashboard applies presentation settings from the config file.
func WithDashboard(d *model.Dashboard) StatusOption {
	return func(x *Status) {
		x.dashboard = d
	}
}

// WithClock injects a clock for tests.
func WithClock(clock quartz.Clock) StatusOption {
	return func(x *Status) {
		x.clock = clock
	}
}

// WithProbeConcurrency overrides the fan-out bound. No effect in mock mode.
func WithProbeConcurrency(n int) StatusOption {
	return func(x *Status) {
		x.probeLimit = n
	}
}

// WithManualQuota overrides the manual refresh quota per hour.
func WithManualQuota(max int) StatusOption {
	return func(x *Status) {
		x.manualMax = max
	}
}

// NewStatus creates the status use case. A nil service activates mock mode:
// Refresh serves a fixed synthetic dataset instead of calling upstream.
func NewStatus(svc clickup.Service, opts ...StatusOption) *Status {
	x := &Status{
		svc:        svc,
		probeLimit: clickup.DefaultProbeConcurrency,
		manualMax:  DefaultManualMaxPerHour,
		clock:      quartz.NewReal(),
		snap:       model.NewSnapshot(),
	}

	for _, opt := range opts {
		opt(x)
	}

	// Built after the options so an injected clock reaches both
	if svc != nil {
		detector := clickup.NewDetector(svc, clickup.WithDetectorClock(x.clock))
		x.prober = clickup.NewProber(detector, x.probeLimit)
	}
	x.limiter = NewManualLimiter(x.manualMax, x.clock)

	return x
}

// MockMode reports whether the use case runs without upstream credentials.
func (x *Status) MockMode() bool {
	return x.svc == nil
}

// Snapshot returns the current snapshot. The returned value is never
// mutated after publication; callers may read it freely.
func (x *Status) Snapshot() *model.Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.snap
}

// Limiter exposes the manual refresh limiter state.
func (x *Status) Limiter() *ManualLimiter {
	return x.limiter
}

// Refresh rebuilds the snapshot from upstream and swaps it in. Any failure
// before the swap leaves the previous snapshot untouched; the caller
// (scheduler or manual endpoint) decides how to surface it.
func (x *Status) Refresh(ctx context.Context) error {
	logger := logging.From(ctx).With("cycle", uuid.NewString())
	ctx = logging.With(ctx, logger)

	now := x.clock.Now()

	if x.MockMode() {
		x.publish(mockSnapshot(now))
		logger.Debug("refresh served mock dataset")
		return nil
	}

	// Identity fetch is best effort: without it only the own-user
	// current-timer fallback is unavailable.
	selfID := x.ensureIdentity(ctx)

	members, err := x.svc.TeamMembers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list team members")
	}
	members = x.dashboard.ApplyMembers(members)

	results := x.prober.Probe(ctx, members, selfID)

	working := x.merge(results)

	x.publish(&model.Snapshot{
		LastUpdated: now,
		Members:     members,
		Working:     working,
	})

	logger.Info("refresh completed",
		"members", len(members),
		"working", len(working),
		"duration", x.clock.Since(now).String())
	return nil
}

// ManualRefresh runs Refresh on behalf of a user request, enforcing the
// hourly quota. A rejected attempt never consumes quota; an accepted one
// consumes it even when the upstream refresh fails, since the call was
// executed. Acquisition is a single limiter operation, so concurrent
// requests racing for the last slot see exactly one acceptance.
func (x *Status) ManualRefresh(ctx context.Context) error {
	if !x.limiter.TryAcquire() {
		return goerr.Wrap(ErrManualQuotaExceeded, "manual refresh rejected")
	}

	if err := x.Refresh(ctx); err != nil {
		return goerr.Wrap(err, "manual refresh failed")
	}
	return nil
}

// ensureIdentity populates the own-user ID once per process, lazily.
func (x *Status) ensureIdentity(ctx context.Context) types.UserID {
	x.mu.RLock()
	selfID := x.selfID
	x.mu.RUnlock()
	if selfID != "" {
		return selfID
	}

	id, err := x.svc.Identity(ctx)
	if err != nil {
		logging.From(ctx).Warn("identity fetch failed, own-user fallback unavailable",
			"error", err.Error())
		return ""
	}

	x.mu.Lock()
	x.selfID = id
	x.mu.Unlock()
	return id
}

// merge builds the new working map from fresh probe results, preserving a
// previously known start time when the upstream omitted it for an ongoing
// session. Without this the displayed "started N ago" timer would visibly
// reset on a poll that dropped the start field. Members without a fresh
// result are dropped: the map holds currently active users only.
func (x *Status) merge(results []*model.ActiveTimer) map[types.UserID]*model.ActiveTimer {
	prev := x.Snapshot().Working

	working := make(map[types.UserID]*model.ActiveTimer, len(results))
	for _, r := range results {
		r = r.Clone()
		if r.Start == 0 {
			if old := prev[r.UserID]; old != nil && old.Start != 0 {
				r.Start = old.Start
			}
		}
		working[r.UserID] = r
	}
	return working
}

// publish swaps in a fully built snapshot as a single step.
func (x *Status) publish(snap *model.Snapshot) {
	x.mu.Lock()
	x.snap = snap
	x.mu.Unlock()
}

// LastUpdated returns the publication time of the current snapshot.
func (x *Status) LastUpdated() time.Time {
	return x.Snapshot().LastUpdated
}
