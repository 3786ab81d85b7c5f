package types

// TaskID identifies a ClickUp task. Empty means the running time entry is
// not linked to a task.
type TaskID string

func (x TaskID) String() string {
	return string(x)
}

// TeamID identifies the monitored ClickUp team (workspace).
type TeamID string

func (x TeamID) String() string {
	return string(x)
}
