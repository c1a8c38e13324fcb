/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/coursekit/apiserver/config"
	"github.com/coursekit/apiserver/internal/mq"
	"github.com/coursekit/apiserver/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes domain events from the configured message broker",
	Long: `Consumes domain events from the configured message broker and logs
them. Requires MQ_BACKEND to be set. Usage:

	apiserver worker
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		logger, err := newLogger(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		broker, err := mq.New(cmd.Context(), cfg)
		if err != nil {
			logger.Error("failed to connect to broker", zap.Error(err))
			os.Exit(1)
		}
		if broker == nil {
			logger.Error("no mq backend configured, set MQ_BACKEND")
			os.Exit(1)
		}
		defer broker.Close()

		logger.Info("event worker started", zap.String("mq_backend", cfg.MQ.Backend))
		if err := services.RunEventWorker(cmd.Context(), broker, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
