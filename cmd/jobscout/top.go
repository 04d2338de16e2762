package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reddam/jobscout/internal/model"
	"github.com/reddam/jobscout/internal/store"
)

var topN int

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the highest-scored stored jobs",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().IntVarP(&topN, "number", "n", 10, "how many jobs to print")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
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

	jobs, err := sqlStore.Query(model.QueryFilter{Limit: topN})
	if err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}

	if len(jobs) == 0 {
		fmt.Println("no jobs stored yet, run `jobscout run` first")
		return nil
	}

	for i, j := range jobs {
		salary := "n/a"
		if j.Salary != nil {
			salary = fmt.Sprintf("$%dk", *j.Salary/1000)
		}
		fmt.Printf("%2d. [%3d] %s at %s (%s, %s) %s\n", i+1, j.Score, j.Title, j.Company, j.Location, salary, j.URL)
	}
	return nil
}
