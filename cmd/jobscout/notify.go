package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/reddam/jobscout/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test digest",
	Long:  "Delivers a dummy job through the configured digest sink to verify the integration.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	digest := setupDigest(cfg, newHTTPClient(), logger)

	if err := notifier.SendTestDigest(digest); err != nil {
		logger.Error("test digest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test digest sent successfully")
	return nil
}
