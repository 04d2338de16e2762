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

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	Title            string `json:"title"`
	CompanyName      string `json:"company_name"`
	RequiredLocation string `json:"candidate_required_location"`
	URL              string `json:"url"`
	PublicationDate  string `json:"publication_date"`
	Salary           string `json:"salary"`
	Description      string `json:"description"`
}

// remotiveResponse is the top-level Remotive jobs API response.
type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches remote jobs from the Remotive public API,
// one request per configured category.
type RemotiveAdapter struct {
	categories []string
	baseURL    string
	client     *http.Client
	limiter    *ratelimit.HostLimiter
	logger     *slog.Logger
}

// NewRemotiveAdapter creates an adapter for the Remotive API.
func NewRemotiveAdapter(categories []string, client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) *RemotiveAdapter {
	return &RemotiveAdapter{
		categories: categories,
		baseURL:    remotiveBaseURL,
		client:     client,
		limiter:    limiter,
		logger:     logger,
	}
}

// Name implements model.SourceAdapter.
func (a *RemotiveAdapter) Name() string { return "remotive" }

// Fetch retrieves jobs for every configured category and normalizes them.
// A failing category is logged and skipped; Fetch errors only when no
// category produced results.
func (a *RemotiveAdapter) Fetch(ctx context.Context) ([]model.Job, error) {
	var (
		jobs     []model.Job
		seen     = make(map[string]struct{})
		skipped  int
		firstErr error
	)

	for _, cat := range a.categories {
		batch, err := a.fetchCategory(ctx, cat)
		if err != nil {
			if ctx.Err() != nil {
				return jobs, err
			}
			a.logger.Warn("remotive category failed", "category", cat, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, rj := range batch {
			job, ok := a.normalize(rj)
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

	if skipped > 0 {
		a.logger.Debug("remotive skipped malformed entries", "count", skipped)
	}
	if len(jobs) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return jobs, nil
}

func (a *RemotiveAdapter) fetchCategory(ctx context.Context, category string) ([]remotiveJob, error) {
	if err := a.limiter.Wait(ctx, "remotive.com"); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s?category=%s&limit=%s",
		a.baseURL, url.QueryEscape(category), strconv.Itoa(100))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", category, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", category, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remotive fetch for %s: unexpected status %d", category, resp.StatusCode),
		}
	}

	var rResp remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rResp); err != nil {
		return nil, fmt.Errorf("remotive fetch for %s: %w", category, err)
	}
	return rResp.Jobs, nil
}

func (a *RemotiveAdapter) normalize(rj remotiveJob) (model.Job, bool) {
	if rj.Title == "" || rj.URL == "" {
		return model.Job{}, false
	}

	location := rj.RequiredLocation
	if location == "" {
		location = "Remote"
	}

	job := model.Job{
		URL:         rj.URL,
		Title:       rj.Title,
		Company:     rj.CompanyName,
		Location:    location,
		Description: trimDescription(rj.Description),
		Source:      a.Name(),
		Salary:      parseSalaryText(rj.Salary),
		EasyApply:   false,
	}

	if rj.PublicationDate != "" {
		// Remotive publishes local-naive ISO timestamps, e.g. "2026-08-28T10:30:00".
		if t, err := time.Parse("2006-01-02T15:04:05", rj.PublicationDate); err == nil {
			utc := t.UTC()
			job.PostedAt = &utc
		} else if t, err := time.Parse(time.RFC3339, rj.PublicationDate); err == nil {
			job.PostedAt = &t
		}
	}

	return job, true
}
