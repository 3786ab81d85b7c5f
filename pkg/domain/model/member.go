package model

import "github.com/secmon-lab/crewpulse/pkg/domain/types"

// Member represents a user belonging to the monitored team. The list is
// replaced wholesale on every refresh; members are never mutated in place.
type Member struct {
	ID        types.UserID `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`     // empty string = unknown
	AvatarURL string       `json:"avatarUrl,omitempty"` // empty string = no image
}
