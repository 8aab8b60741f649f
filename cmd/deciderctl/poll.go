package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/config"
	"github.com/conductor-oss/decider-go/execution"
)

func newPollCmd(logger *zap.Logger, loadConfig func() (*config.Config, error)) *cobra.Command {
	var workerID string
	var domain string
	var count int
	var timeoutMs int

	cmd := &cobra.Command{
		Use:   "poll <taskType>",
		Short: "Poll up to --count tasks off a queue and print them, as a worker would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a := buildApp(cfg, logger)
			defer a.Redis.Close()

			tasks, err := a.Service.Poll(cmd.Context(), execution.PollRequest{
				TaskType:  args[0],
				WorkerID:  workerID,
				Domain:    domain,
				Count:     count,
				TimeoutMs: timeoutMs,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, t := range tasks {
				if err := enc.Encode(t); err != nil {
					return err
				}
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tasks available")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workerID, "worker-id", "deciderctl-cli", "worker id recorded on polled tasks")
	cmd.Flags().StringVar(&domain, "domain", "", "queue domain suffix")
	cmd.Flags().IntVar(&count, "count", 1, "maximum number of tasks to poll")
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 100, "long-poll timeout in milliseconds (max 5000)")

	return cmd
}
