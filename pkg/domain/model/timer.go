package model

import "github.com/secmon-lab/crewpulse/pkg/domain/types"

// ActiveTimer represents one member's currently running time entry.
//
// Start is Unix milliseconds. Zero means the upstream API did not report a
// start time for this poll; the snapshot merge carries a previously known
// start forward in that case, so a zero value is only ever transient.
type ActiveTimer struct {
	UserID   types.UserID `json:"userId"`
	TaskID   types.TaskID `json:"taskId,omitempty"`
	TaskName string       `json:"taskName"`
	Start    int64        `json:"start,omitempty"`
}

// Clone returns a copy of the timer.
func (x *ActiveTimer) Clone() *ActiveTimer {
	if x == nil {
		return nil
	}
	copied := *x
	return &copied
}
