package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/crewpulse/pkg/cli/config"
	httpctrl "github.com/secmon-lab/crewpulse/pkg/controller/http"
	"github.com/secmon-lab/crewpulse/pkg/service/worker"
	"github.com/secmon-lab/crewpulse/pkg/usecase"
	"github.com/secmon-lab/crewpulse/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var clickupCfg config.ClickUp
	var cacheCfg config.Cache
	var dashboardCfg config.Dashboard

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CREWPULSE_ADDR"),
			Destination: &addr,
		},
	}

	// Add shared config flags
	flags = append(flags, clickupCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, dashboardCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server with the background refresh poller",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cacheCfg.Validate(); err != nil {
				return goerr.Wrap(err, "invalid cache configuration")
			}

			dashboard, err := dashboardCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load dashboard configuration")
			}

			clickupSvc, err := clickupCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize ClickUp service")
			}
			if clickupSvc == nil {
				logging.Default().Warn("ClickUp credentials not configured, serving mock dataset")
			} else {
				logging.Default().Info("ClickUp service enabled", "clickup", clickupCfg)
			}

			statusUC := usecase.NewStatus(clickupSvc,
				usecase.WithDashboard(dashboard),
				usecase.WithProbeConcurrency(cacheCfg.Concurrency()),
				usecase.WithManualQuota(cacheCfg.ManualMaxPerHour()),
			)

			// Start the scheduled refresh loop
			refreshWorker := worker.NewStatusRefreshWorker(statusUC, cacheCfg.PollInterval())
			if err := refreshWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start status refresh worker")
			}

			// Create HTTP server
			httpHandler, err := httpctrl.New(statusUC,
				httpctrl.WithDashboardTitle(dashboard.DisplayTitle()),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "cache", cacheCfg)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				refreshWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the refresh worker first so no refresh lands mid-shutdown
				refreshWorker.Stop()

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
