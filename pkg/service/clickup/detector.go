package clickup

import (
	"context"
	"time"

	"github.com/coder/quartz"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/secmon-lab/crewpulse/pkg/utils/logging"
)

// probeWindow is how far back the entry listing looks. Generous on purpose:
// only activity state matters, and a session started days ago must still be
// visible.
const probeWindow = 7 * 24 * time.Hour

// placeholderTaskName is shown when an entry carries no usable task label.
const placeholderTaskName = "Working…"

// Detector determines whether one member has a currently running timer.
type Detector struct {
	svc   Service
	clock quartz.Clock
}

// DetectorOption customizes a Detector
type DetectorOption func(*Detector)

// WithDetectorClock injects a clock for tests.
func WithDetectorClock(clock quartz.Clock) DetectorOption {
	return func(x *Detector) {
		x.clock = clock
	}
}

// NewDetector creates a Detector backed by the given service.
func NewDetector(svc Service, opts ...DetectorOption) *Detector {
	d := &Detector{
		svc:   svc,
		clock: quartz.NewReal(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the member's running timer, or nil when idle. Upstream
// errors for this one member are logged and surface as idle so a single
// member never breaks a whole probe batch. selfID is the cached identity of
// the token's own user; empty when the identity fetch has not succeeded yet.
func (x *Detector) Detect(ctx context.Context, userID, selfID types.UserID) *model.ActiveTimer {
	logger := logging.From(ctx)

	now := x.clock.Now()
	entries, err := x.svc.TimeEntries(ctx, userID, now.Add(-probeWindow), now)
	if err != nil {
		logger.Warn("time entry listing failed, treating member as idle",
			"user", userID, "error", err.Error())
		entries = nil
	}

	entry := latestActive(entries)

	// The dedicated current-timer endpoint is only reliably available for
	// the authenticated user, so the fallback applies to that user alone.
	if entry == nil && selfID != "" && userID == selfID {
		entry = x.probeCurrent(ctx)
	}

	if entry == nil {
		return nil
	}

	return buildTimer(userID, entry)
}

// probeCurrent queries the current-timer endpoint and resolves full entry
// detail before accepting the result.
func (x *Detector) probeCurrent(ctx context.Context) *TimeEntry {
	logger := logging.From(ctx)

	current, err := x.svc.CurrentTimeEntry(ctx)
	if err != nil {
		logger.Warn("current time entry probe failed", "error", err.Error())
		return nil
	}
	if current == nil || current.ID == "" {
		return nil
	}

	detail, err := x.svc.TimeEntry(ctx, current.ID)
	if err != nil {
		logger.Warn("time entry detail fetch failed", "id", current.ID, "error", err.Error())
		return nil
	}
	return detail
}

// isActive reports whether an entry is still running. The four-signal OR is
// deliberately permissive: the upstream API has represented "still running"
// inconsistently across tenants and revisions, and tightening any one
// signal has broken detection before.
func isActive(e *TimeEntry) bool {
	return !e.Duration.OK || e.Duration.Value < 0 || !e.End.OK || !e.Stop.OK
}

// latestActive selects the active entry with the latest start time, ties
// broken by list order. Multiple stale "still open" entries can appear; the
// most recently started one best represents current activity.
func latestActive(entries []*TimeEntry) *TimeEntry {
	var best *TimeEntry
	for _, e := range entries {
		if e == nil || !isActive(e) {
			continue
		}
		if best == nil || e.Start.Value > best.Start.Value {
			best = e
		}
	}
	return best
}

// buildTimer derives the displayable timer from an active entry. Start is
// left at zero when the upstream omitted it; the snapshot merge restores a
// previously known value. Substituting "now" here would corrupt the
// elapsed-time display.
func buildTimer(userID types.UserID, e *TimeEntry) *model.ActiveTimer {
	timer := &model.ActiveTimer{
		UserID:   userID,
		TaskName: taskName(e),
	}
	if e.Task != nil && e.Task.ID != "" {
		timer.TaskID = types.TaskID(e.Task.ID)
	}
	if e.Start.OK {
		timer.Start = e.Start.Value
	}
	return timer
}

// taskName falls back linked task name -> free-text task name -> entry
// description -> placeholder.
func taskName(e *TimeEntry) string {
	switch {
	case e.Task != nil && e.Task.Name != "":
		return e.Task.Name
	case e.TaskName != "":
		return e.TaskName
	case e.Description != "":
		return e.Description
	default:
		return placeholderTaskName
	}
}
