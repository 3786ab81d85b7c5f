package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/crewpulse/pkg/domain/model"
	"github.com/secmon-lab/crewpulse/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Dashboard holds the CLI flag for the optional presentation config file
type Dashboard struct {
	path string
}

// Flags returns CLI flags for dashboard configuration
func (x *Dashboard) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to dashboard configuration file (TOML, optional)",
			Category:    "Dashboard",
			Sources:     cli.EnvVars("CREWPULSE_CONFIG"),
			Destination: &x.path,
		},
	}
}

// MemberConfig adjusts how one member appears on the board
type MemberConfig struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Exclude bool   `toml:"exclude"`
}

// Validate checks if the MemberConfig is valid
func (m *MemberConfig) Validate() error {
	if m.ID == "" {
		return goerr.New("member id is required")
	}
	return nil
}

// DashboardFile is the TOML schema of the presentation config
type DashboardFile struct {
	Title   string         `toml:"title"`
	Members []MemberConfig `toml:"member"`
}

// Validate checks if the DashboardFile is valid
func (f *DashboardFile) Validate() error {
	seen := make(map[string]bool)
	for _, m := range f.Members {
		if err := m.Validate(); err != nil {
			return goerr.Wrap(err, "invalid member config")
		}
		if seen[m.ID] {
			return goerr.New("duplicate member id", goerr.V("id", m.ID))
		}
		seen[m.ID] = true
	}
	return nil
}

// ToDomain converts the file schema to the domain settings
func (f *DashboardFile) ToDomain() *model.Dashboard {
	d := &model.Dashboard{
		Title:         f.Title,
		NameOverrides: map[types.UserID]string{},
		Excluded:      map[types.UserID]bool{},
	}
	for _, m := range f.Members {
		id := types.UserID(m.ID)
		if m.Name != "" {
			d.NameOverrides[id] = m.Name
		}
		if m.Exclude {
			d.Excluded[id] = true
		}
	}
	return d
}

// Configure loads and validates the configuration file. Returns nil when no
// path was given.
func (x *Dashboard) Configure() (*model.Dashboard, error) {
	if x.path == "" {
		return nil, nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(x.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", x.path))
	}

	var file DashboardFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", x.path))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V("path", x.path))
	}

	return file.ToDomain(), nil
}
