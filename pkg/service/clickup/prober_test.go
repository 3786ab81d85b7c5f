package clickup_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/secmon-lab/crewpulse/pkg/service/clickup"
)

func testMembers(n int) []model.Member {
	members := make([]model.Member, n)
	for i := range members {
		id := types.UserID(fmt.Sprintf("%d", i+1))
		members[i] = model.Member{ID: id, Name: "member-" + id.String()}
	}
	return members
}

func TestProber_CollectsAllResults(t *testing.T) {
	svc := newMockService()
	members := testMembers(12)
	for _, m := range members {
		svc.entriesByUser[m.ID] = []*clickup.TimeEntry{runningEntry("e-"+m.ID.String(), 1000)}
	}

	prober := clickup.NewProber(clickup.NewDetector(svc), 5)
	results := prober.Probe(context.Background(), members, "")

	gt.Array(t, results).Length(12)
}

func TestProber_BoundedConcurrency(t *testing.T) {
	const latency = 50 * time.Millisecond

	svc := newMockService()
	svc.probeDelay = latency
	members := testMembers(12)
	for _, m := range members {
		svc.entriesByUser[m.ID] = []*clickup.TimeEntry{runningEntry("e-"+m.ID.String(), 1000)}
	}

	prober := clickup.NewProber(clickup.NewDetector(svc), 5)

	start := time.Now()
	results := prober.Probe(context.Background(), members, "")
	elapsed := time.Since(start)

	gt.Array(t, results).Length(12)

	// With 12 members at concurrency 5, wall time is about ceil(12/5)=3
	// waves of probes, nowhere near 12 sequential calls.
	gt.Bool(t, elapsed >= 3*latency).True()
	gt.Bool(t, elapsed < 8*latency).True()
}

func TestProber_OneFailureDoesNotAbortBatch(t *testing.T) {
	svc := newMockService()
	members := testMembers(12)
	for _, m := range members {
		svc.entriesByUser[m.ID] = []*clickup.TimeEntry{runningEntry("e-"+m.ID.String(), 1000)}
	}
	svc.entriesErr["7"] = goerr.New("member 7 exploded")

	prober := clickup.NewProber(clickup.NewDetector(svc), 5)
	results := prober.Probe(context.Background(), members, "")

	gt.Array(t, results).Length(11)
	for _, r := range results {
		gt.Value(t, r.UserID).NotEqual(types.UserID("7"))
	}
}
