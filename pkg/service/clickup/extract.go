package clickup

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
)

// The ClickUp API has shipped several layouts for the same resources over
// time. Each extract function below tries the historically observed shapes
// in a fixed priority order instead of assuming one layout.

type userRecord struct {
	ID             FlexString `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	ProfilePicture string     `json:"profilePicture"`
}

// memberRecord accepts both a nested user object and the record itself
// acting as the user.
type memberRecord struct {
	User *userRecord `json:"user"`
	userRecord
}

func (x *memberRecord) user() *userRecord {
	if x.User != nil {
		return x.User
	}
	return &x.userRecord
}

type teamBody struct {
	ID      FlexString     `json:"id"`
	Name    string         `json:"name"`
	Members []memberRecord `json:"members"`
}

type teamResponse struct {
	Team    *teamBody      `json:"team"`
	Members []memberRecord `json:"members"`
	Teams   []teamBody     `json:"teams"`
}

// extractMembers resolves the member list from one of the known layouts:
// team.members, members, then teams[0].members. First non-empty wins.
func extractMembers(resp *teamResponse) []model.Member {
	var records []memberRecord
	switch {
	case resp.Team != nil && len(resp.Team.Members) > 0:
		records = resp.Team.Members
	case len(resp.Members) > 0:
		records = resp.Members
	case len(resp.Teams) > 0 && len(resp.Teams[0].Members) > 0:
		records = resp.Teams[0].Members
	}

	members := make([]model.Member, 0, len(records))
	for i := range records {
		u := records[i].user()
		if u.ID == "" {
			continue
		}
		members = append(members, model.Member{
			ID:        types.UserID(u.ID),
			Name:      memberName(u),
			Email:     u.Email,
			AvatarURL: u.ProfilePicture,
		})
	}
	return members
}

// memberName falls back username -> email -> id -> "Unknown".
func memberName(u *userRecord) string {
	switch {
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	case u.ID != "":
		return u.ID.String()
	default:
		return "Unknown"
	}
}

type identityResponse struct {
	User *userRecord `json:"user"`
	ID   FlexString  `json:"id"`
}

// extractIdentity resolves the authenticated user's ID from user.id or the
// top-level id, in that order.
func extractIdentity(resp *identityResponse) (types.UserID, error) {
	if resp.User != nil && resp.User.ID != "" {
		return types.UserID(resp.User.ID), nil
	}
	if resp.ID != "" {
		return types.UserID(resp.ID), nil
	}
	return "", goerr.New("identity response carries no user ID")
}

type entriesResponse struct {
	Data        []*TimeEntry `json:"data"`
	TimeEntries []*TimeEntry `json:"time_entries"`
}

// extractEntries resolves the entry list from data or time_entries.
func extractEntries(resp *entriesResponse) []*TimeEntry {
	if len(resp.Data) > 0 {
		return resp.Data
	}
	return resp.TimeEntries
}

type entryResponse struct {
	Data *TimeEntry `json:"data"`
}
