package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/config"
)

func newRequeueCmd(logger *zap.Logger, loadConfig func() (*config.Config, error)) *cobra.Command {
	var taskType string

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Run a one-shot stale-reservation requeue sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a := buildApp(cfg, logger)
			defer a.Redis.Close()

			var count int
			if taskType == "" {
				count, err = a.Service.RequeuePendingTasks(cmd.Context())
			} else {
				count, err = a.Service.RequeuePendingTasksOfType(cmd.Context(), taskType)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "requeued %d task(s)\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskType, "task-type", "", "requeue only this task-def name's queue (default: sweep all)")

	return cmd
}
