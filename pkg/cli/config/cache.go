package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Cache holds CLI flags for the refresh schedule and manual quota
type Cache struct {
	pollInterval     time.Duration
	manualMaxPerHour int64
	concurrency      int64
}

// Flags returns CLI flags for cache configuration
func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "poll-interval",
			Usage:       "Base interval between scheduled refreshes",
			Category:    "Cache",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("CREWPULSE_POLL_INTERVAL"),
			Destination: &x.pollInterval,
		},
		&cli.Int64Flag{
			Name:        "manual-max-per-hour",
			Usage:       "Manual refresh quota per rolling hour",
			Category:    "Cache",
			Value:       20,
			Sources:     cli.EnvVars("CREWPULSE_MANUAL_MAX_PER_HOUR"),
			Destination: &x.manualMaxPerHour,
		},
		&cli.Int64Flag{
			Name:        "probe-concurrency",
			Usage:       "Max concurrent per-member probes against ClickUp",
			Category:    "Cache",
			Value:       5,
			Sources:     cli.EnvVars("CREWPULSE_PROBE_CONCURRENCY"),
			Destination: &x.concurrency,
		},
	}
}

func (x Cache) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("poll_interval", x.pollInterval.String()),
		slog.Int64("manual_max_per_hour", x.manualMaxPerHour),
		slog.Int64("probe_concurrency", x.concurrency),
	)
}

// Validate checks the cache configuration
func (x *Cache) Validate() error {
	if x.pollInterval <= 0 {
		return goerr.New("poll interval must be positive", goerr.V("interval", x.pollInterval))
	}
	if x.manualMaxPerHour <= 0 {
		return goerr.New("manual quota must be positive", goerr.V("quota", x.manualMaxPerHour))
	}
	if x.concurrency <= 0 {
		return goerr.New("probe concurrency must be positive", goerr.V("concurrency", x.concurrency))
	}
	return nil
}

// PollInterval returns the base refresh interval
func (x *Cache) PollInterval() time.Duration {
	return x.pollInterval
}

// ManualMaxPerHour returns the manual refresh quota
func (x *Cache) ManualMaxPerHour() int {
	return int(x.manualMaxPerHour)
}

// Concurrency returns the probe fan-out bound
func (x *Cache) Concurrency() int {
	return int(x.concurrency)
}
