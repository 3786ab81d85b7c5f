package usecase

import (
	"time"

	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
)

// MockTaskID is the task shown for the synthetic working member in demo
// mode.
const MockTaskID = types.TaskID("TASK-123")

// mockSnapshot returns the fixed dataset served when no ClickUp credentials
// are configured. This is a documented degraded mode for demos and local
// frontend work, not an error.
func mockSnapshot(now time.Time) *model.Snapshot {
	members := []model.Member{
		{ID: "1", Name: "Alice Tanaka", Email: "alice@example.com"},
		{ID: "2", Name: "Ben Okafor", Email: "ben@example.com"},
		{ID: "3", Name: "Chiara Rossi", Email: "chiara@example.com"},
	}

	return &model.Snapshot{
		LastUpdated: now,
		Members:     members,
		Working: map[types.UserID]*model.ActiveTimer{
			"2": {
				UserID:   "2",
				TaskID:   MockTaskID,
				TaskName: "Design review",
				Start:    now.Add(-42 * time.Minute).UnixMilli(),
			},
		},
	}
}
