package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/secmon-lab/crewpulse/pkg/service/clickup"
	"github.com/secmon-lab/crewpulse/pkg/usecase"
)

// fakeClickUp is a configurable clickup.Service for use case tests
type fakeClickUp struct {
	identityFn func() (types.UserID, error)
	membersFn  func() ([]model.Member, error)
	entriesFn  func(assignee types.UserID) ([]*clickup.TimeEntry, error)
}

func (f *fakeClickUp) Identity(ctx context.Context) (types.UserID, error) {
	if f.identityFn != nil {
		return f.identityFn()
	}
	return "self", nil
}

func (f *fakeClickUp) TeamMembers(ctx context.Context) ([]model.Member, error) {
	return f.membersFn()
}

func (f *fakeClickUp) TimeEntries(ctx context.Context, assignee types.UserID, start, end time.Time) ([]*clickup.TimeEntry, error) {
	if f.entriesFn != nil {
		return f.entriesFn(assignee)
	}
	return nil, nil
}

func (f *fakeClickUp) CurrentTimeEntry(ctx context.Context) (*clickup.TimeEntry, error) {
	return nil, nil
}

func (f *fakeClickUp) TimeEntry(ctx context.Context, id string) (*clickup.TimeEntry, error) {
	return nil, goerr.New("not found")
}

func running(start int64) []*clickup.TimeEntry {
	e := &clickup.TimeEntry{
		ID:       "e",
		Duration: clickup.NewMillis(-1),
	}
	if start != 0 {
		e.Start = clickup.NewMillis(start)
	}
	return []*clickup.TimeEntry{e}
}

func twoMembers() ([]model.Member, error) {
	return []model.Member{
		{ID: "1", Name: "alice"},
		{ID: "2", Name: "bob"},
	}, nil
}

func TestStatus_MockMode(t *testing.T) {
	uc := usecase.NewStatus(nil)
	gt.Bool(t, uc.MockMode()).True()

	gt.NoError(t, uc.Refresh(context.Background())).Required()

	snap := uc.Snapshot()
	gt.Array(t, snap.Members).Length(3)
	gt.Array(t, snap.WorkingUserIDs()).Length(1)

	timer := snap.Timer("2")
	gt.Value(t, timer).NotNil().Required()
	gt.Value(t, timer.TaskID).Equal(usecase.MockTaskID)
	gt.Bool(t, timer.Start > 0).True()
	gt.Bool(t, snap.LastUpdated.IsZero()).False()
}

func TestStatus_StartPreservedWhenUpstreamOmitsIt(t *testing.T) {
	entries := map[types.UserID][]*clickup.TimeEntry{
		"1": running(7000),
	}
	svc := &fakeClickUp{
		membersFn: twoMembers,
		entriesFn: func(assignee types.UserID) ([]*clickup.TimeEntry, error) {
			return entries[assignee], nil
		},
	}
	uc := usecase.NewStatus(svc)
	ctx := context.Background()

	gt.NoError(t, uc.Refresh(ctx)).Required()
	gt.Number(t, uc.Snapshot().Timer("1").Start).Equal(int64(7000))

	// Next poll drops the start field for the same ongoing session
	entries["1"] = running(0)
	gt.NoError(t, uc.Refresh(ctx)).Required()
	gt.Number(t, uc.Snapshot().Timer("1").Start).Equal(int64(7000))
}

func TestStatus_FreshStartOverridesCached(t *testing.T) {
	entries := map[types.UserID][]*clickup.TimeEntry{
		"1": running(7000),
	}
	svc := &fakeClickUp{
		membersFn: twoMembers,
		entriesFn: func(assignee types.UserID) ([]*clickup.TimeEntry, error) {
			return entries[assignee], nil
		},
	}
	uc := usecase.NewStatus(svc)
	ctx := context.Background()

	gt.NoError(t, uc.Refresh(ctx)).Required()

	entries["1"] = running(9000)
	gt.NoError(t, uc.Refresh(ctx)).Required()
	gt.Number(t, uc.Snapshot().Timer("1").Start).Equal(int64(9000))
}

func TestStatus_InactiveMembersDropped(t *testing.T) {
	entries := map[types.UserID][]*clickup.TimeEntry{
		"1": running(7000),
		"2": running(8000),
	}
	svc := &fakeClickUp{
		membersFn: twoMembers,
		entriesFn: func(assignee types.UserID) ([]*clickup.TimeEntry, error) {
			return entries[assignee], nil
		},
	}
	uc := usecase.NewStatus(svc)
	ctx := context.Background()

	gt.NoError(t, uc.Refresh(ctx)).Required()
	gt.Array(t, uc.Snapshot().WorkingUserIDs()).Length(2)

	// Member 2 stopped working; the map holds active users only, not a
	// union of all-time workers
	delete(entries, "2")
	gt.NoError(t, uc.Refresh(ctx)).Required()

	snap := uc.Snapshot()
	gt.Array(t, snap.WorkingUserIDs()).Length(1)
	gt.Value(t, snap.Timer("2")).Nil()
}

func TestStatus_FailedRefreshKeepsSnapshot(t *testing.T) {
	failing := false
	svc := &fakeClickUp{
		membersFn: func() ([]model.Member, error) {
			if failing {
				return nil, goerr.New("upstream down")
			}
			return twoMembers()
		},
		entriesFn: func(assignee types.UserID) ([]*clickup.TimeEntry, error) {
			return running(7000), nil
		},
	}
	uc := usecase.NewStatus(svc)
	ctx := context.Background()

	gt.NoError(t, uc.Refresh(ctx)).Required()
	before := uc.Snapshot()

	failing = true
	gt.Error(t, uc.Refresh(ctx))

	// The served snapshot is exactly the previous one
	gt.Value(t, uc.Snapshot()).Equal(before)
}

func TestStatus_IdentityFailureIsNonFatal(t *testing.T) {
	svc := &fakeClickUp{
		identityFn: func() (types.UserID, error) {
			return "", goerr.New("identity endpoint broken")
		},
		membersFn: twoMembers,
	}
	uc := usecase.NewStatus(svc)

	gt.NoError(t, uc.Refresh(context.Background()))
	gt.Array(t, uc.Snapshot().Members).Length(2)
}

func TestStatus_DashboardSettingsApplied(t *testing.T) {
	svc := &fakeClickUp{membersFn: twoMembers}
	uc := usecase.NewStatus(svc, usecase.WithDashboard(&model.Dashboard{
		NameOverrides: map[types.UserID]string{"1": "Alice P."},
		Excluded:      map[types.UserID]bool{"2": true},
	}))

	gt.NoError(t, uc.Refresh(context.Background())).Required()

	snap := uc.Snapshot()
	gt.Array(t, snap.Members).Length(1)
	gt.Value(t, snap.Members[0].Name).Equal("Alice P.")
}

func TestStatus_ManualRefreshQuota(t *testing.T) {
	clk := quartz.NewMock(t)
	uc := usecase.NewStatus(nil,
		usecase.WithClock(clk),
		usecase.WithManualQuota(2),
	)
	ctx := context.Background()

	gt.NoError(t, uc.ManualRefresh(ctx))
	gt.NoError(t, uc.ManualRefresh(ctx))

	err := uc.ManualRefresh(ctx)
	gt.Value(t, err).NotNil().Required()
	gt.Bool(t, errors.Is(err, usecase.ErrManualQuotaExceeded)).True()
	gt.Number(t, uc.Limiter().Remaining()).Equal(0)

	// A rejected attempt does not consume quota; the window drains on
	// schedule
	clk.Advance(61 * time.Minute)
	gt.Number(t, uc.Limiter().Remaining()).Equal(2)
}

func TestStatus_ManualRefreshConcurrentQuota(t *testing.T) {
	// The winner's upstream fetch stalls until released, so the competing
	// request arrives while the last quota slot is in flight. Exactly one
	// refresh may execute.
	release := make(chan struct{})
	var fetches int32
	svc := &fakeClickUp{
		membersFn: func() ([]model.Member, error) {
			atomic.AddInt32(&fetches, 1)
			<-release
			return twoMembers()
		},
	}
	uc := usecase.NewStatus(svc, usecase.WithManualQuota(1))
	ctx := context.Background()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- uc.ManualRefresh(ctx)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	var accepted, rejected int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, usecase.ErrManualQuotaExceeded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	gt.Number(t, accepted).Equal(1)
	gt.Number(t, rejected).Equal(1)
	gt.Number(t, int(atomic.LoadInt32(&fetches))).Equal(1)
	gt.Number(t, uc.Limiter().Remaining()).Equal(0)
}
