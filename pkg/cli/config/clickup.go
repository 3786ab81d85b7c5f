package config

import (
	"log/slog"

	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/secmon-lab/crewpulse/pkg/service/clickup"
	"github.com/urfave/cli/v3"
)

// ClickUp holds CLI flags for the upstream API connection
type ClickUp struct {
	token  string
	teamID string
}

// Flags returns CLI flags for ClickUp configuration
func (x *ClickUp) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "clickup-api-token",
			Usage:       "ClickUp API token (leave unset for mock/demo mode)",
			Category:    "ClickUp",
			Sources:     cli.EnvVars("CREWPULSE_CLICKUP_API_TOKEN"),
			Destination: &x.token,
		},
		&cli.StringFlag{
			Name:        "clickup-team-id",
			Usage:       "ClickUp team (workspace) ID to monitor",
			Category:    "ClickUp",
			Sources:     cli.EnvVars("CREWPULSE_CLICKUP_TEAM_ID"),
			Destination: &x.teamID,
		},
	}
}

func (x ClickUp) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("token.len", len(x.token)),
		slog.String("team", x.teamID),
	)
}

// IsConfigured reports whether both the token and the team ID are set.
// When either is missing the service runs in mock/demo mode instead of
// failing startup.
func (x *ClickUp) IsConfigured() bool {
	return x.token != "" && x.teamID != ""
}

// Configure creates the ClickUp service, or returns nil when credentials
// are absent (mock mode).
func (x *ClickUp) Configure() (clickup.Service, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	return clickup.New(x.token, types.TeamID(x.teamID))
}
