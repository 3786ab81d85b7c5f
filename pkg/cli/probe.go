package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/crewpulse/pkg/cli/config"
	"github.com/secmon-lab/crewpulse/pkg/usecase"
	"github.com/secmon-lab/crewpulse/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// cmdProbe runs a single refresh cycle and prints the snapshot as JSON.
// Useful for debugging detection behavior without running the server.
func cmdProbe() *cli.Command {
	var clickupCfg config.ClickUp
	var cacheCfg config.Cache
	var dashboardCfg config.Dashboard

	var flags []cli.Flag
	flags = append(flags, clickupCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, dashboardCfg.Flags()...)

	return &cli.Command{
		Name:    "probe",
		Aliases: []string{"p"},
		Usage:   "Run one refresh cycle and print the snapshot to stdout",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			dashboard, err := dashboardCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load dashboard configuration")
			}

			clickupSvc, err := clickupCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize ClickUp service")
			}
			if clickupSvc == nil {
				logging.Default().Warn("ClickUp credentials not configured, probing mock dataset")
			}

			statusUC := usecase.NewStatus(clickupSvc,
				usecase.WithDashboard(dashboard),
				usecase.WithProbeConcurrency(cacheCfg.Concurrency()),
			)

			if err := statusUC.Refresh(ctx); err != nil {
				return goerr.Wrap(err, "refresh failed")
			}

			snap := statusUC.Snapshot()
			out := struct {
				LastUpdated int64 `json:"lastUpdated"`
				Members     any   `json:"members"`
				Working     any   `json:"workingByUserId"`
			}{
				LastUpdated: snap.LastUpdated.UnixMilli(),
				Members:     snap.Members,
				Working:     snap.Working,
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return goerr.Wrap(err, "failed to encode snapshot")
			}
			return nil
		},
	}
}
