package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/reddam/jobscout/internal/model"
	"github.com/reddam/jobscout/internal/ratelimit"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs/us/search"

// adzunaJob represents a single result in the Adzuna search response.
type adzunaJob struct {
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	RedirectURL string  `json:"redirect_url"`
	Description string  `json:"description"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	Created     string  `json:"created"`
}

// adzunaResponse is the top-level Adzuna search response.
type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

// AdzunaAdapter fetches jobs from the Adzuna search API. The adapter is
// key-gated: construct it only when both credentials are present (see
// Enabled), otherwise the source contributes zero results.
type AdzunaAdapter struct {
	appID   string
	appKey  string
	titles  []string
	pages   int
	baseURL string
	client  *http.Client
	limiter *ratelimit.HostLimiter
	logger  *slog.Logger
}

// NewAdzunaAdapter creates an adapter for the Adzuna search API.
func NewAdzunaAdapter(appID, appKey string, titles []string, pages int, client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) *AdzunaAdapter {
	return &AdzunaAdapter{
		appID:   appID,
		appKey:  appKey,
		titles:  titles,
		pages:   pages,
		baseURL: adzunaBaseURL,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Enabled reports whether both API credentials are configured.
func (a *AdzunaAdapter) Enabled() bool {
	return a.appID != "" && a.appKey != ""
}

// Name implements model.SourceAdapter.
func (a *AdzunaAdapter) Name() string { return "adzuna" }

// Fetch pages through the search API for every configured title. Missing
// credentials make Fetch a logged no-op rather than an error.
func (a *AdzunaAdapter) Fetch(ctx context.Context) ([]model.Job, error) {
	if !a.Enabled() {
		a.logger.Info("adzuna credentials not configured, skipping")
		return nil, nil
	}

	var (
		jobs     []model.Job
		seen     = make(map[string]struct{})
		skipped  int
		firstErr error
	)

	for _, title := range a.titles {
		for page := 1; page <= a.pages; page++ {
			batch, err := a.fetchPage(ctx, title, page)
			if err != nil {
				if ctx.Err() != nil {
					return jobs, err
				}
				a.logger.Warn("adzuna page failed", "title", title, "page", page, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				break // remaining pages for this title are unlikely to fare better
			}
			for _, aj := range batch {
				job, ok := a.normalize(aj)
				if !ok {
					skipped++
					continue
				}
				if _, dup := seen[job.URL]; dup {
					continue
				}
				seen[job.URL] = struct{}{}
				jobs = append(jobs, job)
			}
		}
	}

	if skipped > 0 {
		a.logger.Debug("adzuna skipped malformed entries", "count", skipped)
	}
	if len(jobs) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return jobs, nil
}

func (a *AdzunaAdapter) fetchPage(ctx context.Context, title string, page int) ([]adzunaJob, error) {
	if err := a.limiter.Wait(ctx, "api.adzuna.com"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", title)
	params.Set("where", "United States")
	params.Set("results_per_page", "20")
	params.Set("max_days_old", "3")
	params.Set("sort_by", "date")

	u := a.baseURL + "/" + strconv.Itoa(page) + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch for %q page %d: %w", title, page, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch for %q page %d: %w", title, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("adzuna fetch for %q page %d: unexpected status %d", title, page, resp.StatusCode),
		}
	}

	var aResp adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&aResp); err != nil {
		return nil, fmt.Errorf("adzuna fetch for %q page %d: %w", title, page, err)
	}
	return aResp.Results, nil
}

func (a *AdzunaAdapter) normalize(aj adzunaJob) (model.Job, bool) {
	if aj.Title == "" || aj.RedirectURL == "" {
		return model.Job{}, false
	}

	job := model.Job{
		URL:         aj.RedirectURL,
		Title:       aj.Title,
		Company:     aj.Company.DisplayName,
		Location:    aj.Location.DisplayName,
		Description: trimDescription(aj.Description),
		Source:      a.Name(),
		Salary:      averageSalary(aj.SalaryMin, aj.SalaryMax),
		EasyApply:   false,
	}

	if aj.Created != "" {
		if t, err := time.Parse(time.RFC3339, aj.Created); err == nil {
			job.PostedAt = &t
		} else if t, err := time.Parse("2006-01-02T15:04:05Z", aj.Created); err == nil {
			job.PostedAt = &t
		}
	}

	return job, true
}
