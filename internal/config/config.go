package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobscout pipeline.
type Config struct {
	Search       SearchConfig
	Filters      FilterConfig
	Scoring      ScoringConfig
	Sources      SourcesConfig
	Aggregate    AggregateConfig
	Notification NotificationConfig
	Sheets       SheetsConfig
	Store        StoreConfig
	Server       ServerConfig
}

// SearchConfig holds the titles and locations fed to search-driven adapters.
type SearchConfig struct {
	Titles    []string `yaml:"titles"`
	Locations []string `yaml:"locations"`
}

// FilterConfig holds the hard exclusion rules.
type FilterConfig struct {
	MinSalary       int
	ExcludeKeywords []string
	MaxAge          time.Duration // freshness window; older postings are dropped
}

// ScoringConfig holds keyword sets and thresholds for the scorer.
type ScoringConfig struct {
	CoreTitleKeywords []string `yaml:"core_title_keywords"`
	TechTitleKeywords []string `yaml:"tech_title_keywords"`
	IncludeKeywords   []string `yaml:"include_keywords"`
	DreamCompanies    []string `yaml:"dream_companies"`
	AlertThreshold    int      `yaml:"alert_threshold"` // digest eligibility floor
	SyncThreshold     int      `yaml:"sync_threshold"`  // sheet mirror floor
}

// BoardConfig describes a single ATS board polled by the boards adapter.
type BoardConfig struct {
	Name  string `yaml:"name"`  // display company name
	ATS   string `yaml:"ats"`   // "greenhouse" or "lever"
	Token string `yaml:"token"` // board token / company slug
}

// SourcesConfig enables and configures each adapter variant.
type SourcesConfig struct {
	Boards   []BoardConfig `yaml:"boards"`
	Remotive struct {
		Enabled    bool     `yaml:"enabled"`
		Categories []string `yaml:"categories"`
	} `yaml:"remotive"`
	RemoteOK struct {
		Enabled bool     `yaml:"enabled"`
		Tags    []string `yaml:"tags"`
	} `yaml:"remoteok"`
	Jobicy struct {
		Enabled bool     `yaml:"enabled"`
		Tags    []string `yaml:"tags"`
		Count   int      `yaml:"count"`
	} `yaml:"jobicy"`
	Adzuna struct {
		AppID  string `yaml:"app_id"`
		AppKey string `yaml:"app_key"`
		Pages  int    `yaml:"pages"`
	} `yaml:"adzuna"`
}

// AggregateConfig bounds the adapter fan-out.
type AggregateConfig struct {
	Concurrency    int
	AdapterTimeout time.Duration
}

// NotificationConfig controls the digest sink.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
	TopK       int    `yaml:"top_k"`       // digest size
}

// SheetsConfig controls the Google Sheets sync sink. The sink self-disables
// when the credentials file is missing.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsFile string `yaml:"credentials_file"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the dashboard API.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	PageSize int    `yaml:"page_size"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	Search  SearchConfig `yaml:"search"`
	Filters struct {
		MinSalary       int      `yaml:"min_salary"`
		ExcludeKeywords []string `yaml:"exclude_keywords"`
		MaxAge          string   `yaml:"max_age"`
	} `yaml:"filters"`
	Scoring   ScoringConfig `yaml:"scoring"`
	Sources   SourcesConfig `yaml:"sources"`
	Aggregate struct {
		Concurrency    int    `yaml:"concurrency"`
		AdapterTimeout string `yaml:"adapter_timeout"`
	} `yaml:"aggregate"`
	Notification NotificationConfig `yaml:"notification"`
	Sheets       SheetsConfig       `yaml:"sheets"`
	Store        StoreConfig        `yaml:"store"`
	Server       ServerConfig       `yaml:"server"`
}

// Defaults mirror the pre-filled search the tool ships with.
var (
	defaultExcludeKeywords = []string{"unpaid", "principal", "staff engineer", "10+ years"}

	defaultCoreTitleKeywords = []string{
		"data engineer", "etl engineer", "pipeline engineer", "analytics engineer",
		"ml engineer", "machine learning engineer", "data pipeline", "etl developer",
	}

	defaultTechTitleKeywords = []string{
		"spark", "kafka", "airflow", "dbt", "snowflake", "databricks", "bigquery",
		"redshift", "flink", "beam", "hive", "hadoop", "aws", "gcp", "azure",
		"python", "sql",
	}

	defaultIncludeKeywords = []string{
		"data pipeline", "etl", "spark", "kafka", "airflow", "dbt", "sql",
		"python", "cloud", "aws", "gcp", "azure", "data warehouse",
	}
)

// Load reads and parses the YAML config file at path, expands environment
// variables, applies defaults, validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so API keys never live in the file.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	maxAge := 72 * time.Hour
	if raw.Filters.MaxAge != "" {
		maxAge, err = time.ParseDuration(raw.Filters.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("parse filters.max_age %q: %w", raw.Filters.MaxAge, err)
		}
	}

	adapterTimeout := 30 * time.Second
	if raw.Aggregate.AdapterTimeout != "" {
		adapterTimeout, err = time.ParseDuration(raw.Aggregate.AdapterTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse aggregate.adapter_timeout %q: %w", raw.Aggregate.AdapterTimeout, err)
		}
	}

	cfg := &Config{
		Search: raw.Search,
		Filters: FilterConfig{
			MinSalary:       raw.Filters.MinSalary,
			ExcludeKeywords: raw.Filters.ExcludeKeywords,
			MaxAge:          maxAge,
		},
		Scoring: raw.Scoring,
		Sources: raw.Sources,
		Aggregate: AggregateConfig{
			Concurrency:    raw.Aggregate.Concurrency,
			AdapterTimeout: adapterTimeout,
		},
		Notification: raw.Notification,
		Sheets:       raw.Sheets,
		Store:        raw.Store,
		Server:       raw.Server,
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Filters.MinSalary == 0 {
		cfg.Filters.MinSalary = 80_000
	}
	if len(cfg.Filters.ExcludeKeywords) == 0 {
		cfg.Filters.ExcludeKeywords = defaultExcludeKeywords
	}
	if len(cfg.Scoring.CoreTitleKeywords) == 0 {
		cfg.Scoring.CoreTitleKeywords = defaultCoreTitleKeywords
	}
	if len(cfg.Scoring.TechTitleKeywords) == 0 {
		cfg.Scoring.TechTitleKeywords = defaultTechTitleKeywords
	}
	if len(cfg.Scoring.IncludeKeywords) == 0 {
		cfg.Scoring.IncludeKeywords = defaultIncludeKeywords
	}
	if cfg.Scoring.AlertThreshold == 0 {
		cfg.Scoring.AlertThreshold = 65
	}
	if cfg.Scoring.SyncThreshold == 0 {
		cfg.Scoring.SyncThreshold = 50
	}
	if cfg.Aggregate.Concurrency == 0 {
		cfg.Aggregate.Concurrency = 4
	}
	if cfg.Notification.TopK == 0 {
		cfg.Notification.TopK = 10
	}
	if cfg.Sources.Jobicy.Count == 0 {
		cfg.Sources.Jobicy.Count = 50
	}
	if cfg.Sources.Adzuna.Pages == 0 {
		cfg.Sources.Adzuna.Pages = 3
	}
	if cfg.Sheets.SheetName == "" {
		cfg.Sheets.SheetName = "Jobs"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "jobs.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.PageSize == 0 {
		cfg.Server.PageSize = 50
	}
}

func validate(cfg *Config) error {
	if len(cfg.Search.Titles) == 0 {
		return fmt.Errorf("search.titles must list at least one title")
	}

	if cfg.Filters.MaxAge < time.Hour {
		return fmt.Errorf("filters.max_age must be at least 1h, got %v", cfg.Filters.MaxAge)
	}

	if cfg.Scoring.AlertThreshold < 0 || cfg.Scoring.AlertThreshold > 100 {
		return fmt.Errorf("scoring.alert_threshold must be in [0,100], got %d", cfg.Scoring.AlertThreshold)
	}
	if cfg.Scoring.SyncThreshold < 0 || cfg.Scoring.SyncThreshold > 100 {
		return fmt.Errorf("scoring.sync_threshold must be in [0,100], got %d", cfg.Scoring.SyncThreshold)
	}

	for _, b := range cfg.Sources.Boards {
		if b.ATS != "greenhouse" && b.ATS != "lever" {
			return fmt.Errorf("sources.boards: unsupported ats %q for %s", b.ATS, b.Name)
		}
		if b.Token == "" {
			return fmt.Errorf("sources.boards: missing token for %s", b.Name)
		}
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		const prefix = "https://hooks.slack.com/"
		if len(cfg.Notification.WebhookURL) < len(prefix) ||
			cfg.Notification.WebhookURL[:len(prefix)] != prefix {
			return fmt.Errorf("notification.webhook_url must start with %s", prefix)
		}
	}

	return nil
}
