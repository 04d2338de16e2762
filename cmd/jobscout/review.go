package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/reddam/jobscout/internal/review"
	"github.com/reddam/jobscout/internal/store"
)

var (
	reviewMinScore int
	reviewLimit    int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse and triage stored jobs",
	Long:  "Opens an interactive list of stored jobs, best score first. Toggle applied/saved with a/s, open the posting with o.",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewMinScore, "min-score", 0, "only show jobs at or above this score")
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 200, "maximum jobs to load")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	return review.Run(sqlStore, reviewMinScore, reviewLimit)
}
