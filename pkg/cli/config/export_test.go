package config

import "time"

// NewClickUpForTest creates a ClickUp config for testing purposes
func NewClickUpForTest(token, teamID string) *ClickUp {
	return &ClickUp{
		token:  token,
		teamID: teamID,
	}
}

// NewCacheForTest creates a Cache config for testing purposes
func NewCacheForTest(pollInterval time.Duration, manualMax, concurrency int64) *Cache {
	return &Cache{
		pollInterval:     pollInterval,
		manualMaxPerHour: manualMax,
		concurrency:      concurrency,
	}
}

// NewDashboardForTest creates a Dashboard config for testing purposes
func NewDashboardForTest(path string) *Dashboard {
	return &Dashboard{path: path}
}
