package clickup

import (
	"context"
	"sync"

	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeConcurrency caps the number of in-flight upstream probes.
const DefaultProbeConcurrency = 5

// Prober runs the Detector across all members with bounded concurrency.
// Result order follows completion, not member order. One member's failure
// never prevents the other results from being collected.
type Prober struct {
	detector *Detector
	limit    int
}

// NewProber creates a Prober. A non-positive limit falls back to
// DefaultProbeConcurrency.
func NewProber(detector *Detector, limit int) *Prober {
	if limit <= 0 {
		limit = DefaultProbeConcurrency
	}
	return &Prober{detector: detector, limit: limit}
}

// Probe detects active timers for all members and returns the non-nil
// results.
func (x *Prober) Probe(ctx context.Context, members []model.Member, selfID types.UserID) []*model.ActiveTimer {
	var mu sync.Mutex
	var results []*model.ActiveTimer

	g := &errgroup.Group{}
	g.SetLimit(x.limit)

	for _, m := range members {
		g.Go(func() error {
			if timer := x.detector.Detect(ctx, m.ID, selfID); timer != nil {
				mu.Lock()
				results = append(results, timer)
				mu.Unlock()
			}
			return nil
		})
	}

	// Detect never returns an error; Wait only synchronizes completion.
	_ = g.Wait()

	return results
}
