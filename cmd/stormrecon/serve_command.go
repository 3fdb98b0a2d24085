package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/couchcryptid/storm-data-reconciler/internal/adapter/httpadapter"
	"github.com/couchcryptid/storm-data-reconciler/internal/pipeline"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the SPC feed on a schedule and serve health and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	driver, err := a.pollDriver(ctx)
	if err != nil {
		return err
	}

	scheduler := pipeline.NewScheduler(func(ctx context.Context) error {
		return driver.RunYears(ctx, a.cfg.PollFirstYear, a.cfg.PollLastYear)
	}, a.cfg.PollInterval, a.clock, a.logger, a.metrics)

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, scheduler, scheduler, a.logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()

	if err := scheduler.Run(ctx); err != nil {
		a.logger.Error("scheduler error", "error", err)
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
