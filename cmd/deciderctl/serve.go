package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/config"
)

func newServeCmd(logger *zap.Logger, loadConfig func() (*config.Config, error)) *cobra.Command {
	var decideSweepSpec string
	var requeueSweepSpec string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the execution service, decide sweeps, and the operator HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a := buildApp(cfg, logger)
			defer a.Redis.Close()

			if err := a.Ticker.ScheduleDecideSweep(decideSweepSpec); err != nil {
				return err
			}
			if err := a.Ticker.ScheduleRequeueSweep(requeueSweepSpec); err != nil {
				return err
			}
			a.Ticker.Start()

			serveErr := make(chan error, 1)
			go func() {
				if err := a.HTTP.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
					return
				}
				serveErr <- nil
			}()

			logger.Info("deciderctl serving", zap.String("addr", cfg.HTTP.Addr))

			select {
			case <-cmd.Context().Done():
			case err := <-serveErr:
				if err != nil {
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := a.Ticker.Stop(shutdownCtx); err != nil {
				logger.Warn("ticker stop", zap.Error(err))
			}
			return a.HTTP.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&decideSweepSpec, "decide-sweep", "*/5 * * * * *", "cron spec for the periodic re-decide sweep")
	cmd.Flags().StringVar(&requeueSweepSpec, "requeue-sweep", "0 * * * * *", "cron spec for the periodic stale-reservation requeue sweep")

	return cmd
}
