package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reddam/jobscout/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Collect once, print the summary, exit",
	Long:  "Dry run: collects and scores from all sources but persists nothing and sends no digest.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: nothing will be persisted or notified")

	// A throwaway store and a log-only digest keep the run side-effect free.
	cfg.Notification.Type = "log"
	cfg.Sheets.SpreadsheetID = ""
	pipe := buildPipeline(cfg, store.NewNopStore(), newHTTPClient(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := pipe.Run(ctx)
	if err != nil {
		logger.Error("check failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(renderReport(stats))
	logger.Info("check complete")
	return nil
}
