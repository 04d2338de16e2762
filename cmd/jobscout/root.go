package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reddam/jobscout/internal/adapter"
	"github.com/reddam/jobscout/internal/aggregate"
	"github.com/reddam/jobscout/internal/config"
	"github.com/reddam/jobscout/internal/filter"
	"github.com/reddam/jobscout/internal/model"
	"github.com/reddam/jobscout/internal/notifier"
	"github.com/reddam/jobscout/internal/pipeline"
	"github.com/reddam/jobscout/internal/ratelimit"
	"github.com/reddam/jobscout/internal/retry"
	"github.com/reddam/jobscout/internal/score"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Job hunt on autopilot",
	Long:  "Jobscout collects postings from several job boards, scores them against your profile, and sends a digest of the best new matches.",
	// Default to `run` so that `jobscout` with no args does a full pass.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupDigest(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.DigestSink {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack digest")
		return notifier.NewSlackDigest(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogDigest(logger)
	}
}

func setupSync(cfg *config.Config, logger *slog.Logger) model.SyncSink {
	return notifier.NewSheetsSync(
		cfg.Sheets.SpreadsheetID,
		cfg.Sheets.SheetName,
		cfg.Sheets.CredentialsFile,
		logger,
	)
}

// buildAdapters constructs every configured source adapter, each wrapped with
// retries. Per-host pacing is shared across adapters through the limiter.
func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	limiter := ratelimit.NewHostLimiter(2)

	var adapters []model.SourceAdapter
	add := func(a model.SourceAdapter) {
		adapters = append(adapters, retry.Wrap(a, 3, time.Second, logger))
		logger.Info("registered source", "name", a.Name())
	}

	if len(cfg.Sources.Boards) > 0 {
		boards := make([]adapter.Board, len(cfg.Sources.Boards))
		for i, b := range cfg.Sources.Boards {
			boards[i] = adapter.Board{Name: b.Name, ATS: b.ATS, Token: b.Token}
		}
		add(adapter.NewBoardsAdapter(boards, httpClient, limiter, logger))
	}
	if cfg.Sources.Remotive.Enabled {
		add(adapter.NewRemotiveAdapter(cfg.Sources.Remotive.Categories, httpClient, limiter, logger))
	}
	if cfg.Sources.RemoteOK.Enabled {
		add(adapter.NewRemoteOKAdapter(cfg.Sources.RemoteOK.Tags, httpClient, limiter, logger))
	}
	if cfg.Sources.Jobicy.Enabled {
		add(adapter.NewJobicyAdapter(cfg.Sources.Jobicy.Tags, cfg.Sources.Jobicy.Count, httpClient, limiter, logger))
	}

	// Adzuna registers even without credentials; it reports itself as skipped
	// on each run so a misconfigured key is visible in the logs.
	add(adapter.NewAdzunaAdapter(
		cfg.Sources.Adzuna.AppID,
		cfg.Sources.Adzuna.AppKey,
		cfg.Search.Titles,
		cfg.Sources.Adzuna.Pages,
		httpClient,
		limiter,
		logger,
	))

	return adapters
}

// buildPipeline assembles a full pipeline over the given store.
func buildPipeline(cfg *config.Config, st model.Store, httpClient *http.Client, logger *slog.Logger) *pipeline.Pipeline {
	adapters := buildAdapters(cfg, httpClient, logger)
	agg := aggregate.New(adapters, cfg.Aggregate.Concurrency, cfg.Aggregate.AdapterTimeout, logger)
	rules := filter.NewRules(cfg.Filters.MinSalary, cfg.Filters.ExcludeKeywords, cfg.Filters.MaxAge)
	scorer := score.New(
		cfg.Scoring.CoreTitleKeywords,
		cfg.Scoring.TechTitleKeywords,
		cfg.Scoring.IncludeKeywords,
		cfg.Scoring.DreamCompanies,
	)
	digest := setupDigest(cfg, httpClient, logger)
	sync := setupSync(cfg, logger)

	return pipeline.New(
		agg, rules, scorer, st, digest, sync,
		cfg.Scoring.AlertThreshold,
		cfg.Scoring.SyncThreshold,
		cfg.Notification.TopK,
		logger,
	)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
