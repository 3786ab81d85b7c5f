package model

import "github.com/secmon-lab/crewpulse/pkg/domain/types"

// Dashboard holds presentation settings loaded from the optional
// configuration file. A nil Dashboard applies no adjustments.
type Dashboard struct {
	Title         string
	NameOverrides map[types.UserID]string
	Excluded      map[types.UserID]bool
}

// DefaultDashboardTitle is used when no configuration file is given.
const DefaultDashboardTitle = "Team Pulse"

// ApplyMembers filters out excluded members and applies display-name
// overrides. The input slice is not modified.
func (x *Dashboard) ApplyMembers(members []Member) []Member {
	if x == nil {
		return members
	}

	result := make([]Member, 0, len(members))
	for _, m := range members {
		if x.Excluded[m.ID] {
			continue
		}
		if name, ok := x.NameOverrides[m.ID]; ok {
			m.Name = name
		}
		result = append(result, m)
	}
	return result
}

// DisplayTitle returns the configured title or the default.
func (x *Dashboard) DisplayTitle() string {
	if x == nil || x.Title == "" {
		return DefaultDashboardTitle
	}
	return x.Title
}
