package model

import (
	"sort"
	"time"

	"github.com/secmon-lab/crewpulse/pkg/domain/types"
)

// Snapshot is the single cached view of the team's working status. A
// snapshot is built fully in a local value and then swapped in as a whole;
// readers never observe a partially built one. A failed refresh leaves the
// previous snapshot untouched.
type Snapshot struct {
	LastUpdated time.Time
	Members     []Member
	Working     map[types.UserID]*ActiveTimer
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Working: map[types.UserID]*ActiveTimer{},
	}
}

// WorkingUserIDs returns the sorted IDs of members with a running timer.
// Deriving the set from the Working map keeps the two views consistent by
// construction.
func (x *Snapshot) WorkingUserIDs() []types.UserID {
	ids := make([]types.UserID, 0, len(x.Working))
	for id := range x.Working {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Timer returns the active timer for the given member, or nil if idle.
func (x *Snapshot) Timer(id types.UserID) *ActiveTimer {
	return x.Working[id]
}
