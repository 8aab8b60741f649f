// Command deciderctl runs the decider/execution-service stack as a standalone process, or
// drives it one-shot from the command line. Grounded on the pack's cobra-root-command-plus-
// signal-context shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conductor-oss/decider-go/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "deciderctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "deciderctl",
		Short: "Workflow decider and execution service",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "directory to search for deciderctl.yaml")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	loadConfig := func() (*config.Config, error) {
		if configPath == "" {
			return config.Load()
		}
		return config.Load(configPath)
	}

	rootCmd.AddCommand(newServeCmd(logger, loadConfig))
	rootCmd.AddCommand(newRequeueCmd(logger, loadConfig))
	rootCmd.AddCommand(newPollCmd(logger, loadConfig))

	return rootCmd.ExecuteContext(ctx)
}
