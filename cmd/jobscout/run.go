package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reddam/jobscout/internal/scheduler"
	"github.com/reddam/jobscout/internal/store"
)

var every time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full collection pass",
	Long:  "Collects from all sources, scores and persists the results, and sends the digest. With --every, keeps running on an interval until interrupted.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().DurationVar(&every, "every", 0, "repeat the pass on this interval (e.g. 6h); 0 runs once")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"titles", len(cfg.Search.Titles),
		"min_salary", cfg.Filters.MinSalary,
		"max_age", cfg.Filters.MaxAge.String(),
		"alert_threshold", cfg.Scoring.AlertThreshold,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	pipe := buildPipeline(cfg, sqlStore, newHTTPClient(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if every > 0 {
		sched := scheduler.New(pipe, every, logger)
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
			os.Exit(1)
		}
		logger.Info("goodbye")
		return nil
	}

	stats, err := pipe.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(renderReport(stats))
	return nil
}
