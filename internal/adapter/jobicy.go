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

const jobicyBaseURL = "https://jobicy.com/api/v2/remote-jobs"

// jobicyJob represents a single job in the Jobicy API response.
type jobicyJob struct {
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	JobGeo         string `json:"jobGeo"`
	URL            string `json:"url"`
	PubDate        string `json:"pubDate"`
	JobDescription string `json:"jobDescription"`
	SalaryMin      float64 `json:"annualSalaryMin"`
	SalaryMax      float64 `json:"annualSalaryMax"`
}

// jobicyResponse is the top-level Jobicy API response.
type jobicyResponse struct {
	Jobs []jobicyJob `json:"jobs"`
}

// JobicyAdapter fetches remote jobs from the Jobicy public API, one request
// per configured tag.
type JobicyAdapter struct {
	tags    []string
	count   int
	baseURL string
	client  *http.Client
	limiter *ratelimit.HostLimiter
	logger  *slog.Logger
}

// NewJobicyAdapter creates an adapter for the Jobicy API. count caps the
// results requested per tag.
func NewJobicyAdapter(tags []string, count int, client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) *JobicyAdapter {
	return &JobicyAdapter{
		tags:    tags,
		count:   count,
		baseURL: jobicyBaseURL,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Name implements model.SourceAdapter.
func (a *JobicyAdapter) Name() string { return "jobicy" }

// Fetch retrieves jobs for every configured tag. Failing tags are logged
// and skipped; Fetch errors only when no tag produced results.
func (a *JobicyAdapter) Fetch(ctx context.Context) ([]model.Job, error) {
	var (
		jobs     []model.Job
		seen     = make(map[string]struct{})
		skipped  int
		firstErr error
	)

	for _, tag := range a.tags {
		batch, err := a.fetchTag(ctx, tag)
		if err != nil {
			if ctx.Err() != nil {
				return jobs, err
			}
			a.logger.Warn("jobicy tag failed", "tag", tag, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, jj := range batch {
			job, ok := a.normalize(jj)
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
		a.logger.Debug("jobicy skipped malformed entries", "count", skipped)
	}
	if len(jobs) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return jobs, nil
}

func (a *JobicyAdapter) fetchTag(ctx context.Context, tag string) ([]jobicyJob, error) {
	if err := a.limiter.Wait(ctx, "jobicy.com"); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s?tag=%s&count=%s",
		a.baseURL, url.QueryEscape(tag), strconv.Itoa(a.count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("jobicy fetch for %s: %w", tag, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobicy fetch for %s: %w", tag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("jobicy fetch for %s: unexpected status %d", tag, resp.StatusCode),
		}
	}

	var jResp jobicyResponse
	if err := json.NewDecoder(resp.Body).Decode(&jResp); err != nil {
		return nil, fmt.Errorf("jobicy fetch for %s: %w", tag, err)
	}
	return jResp.Jobs, nil
}

func (a *JobicyAdapter) normalize(jj jobicyJob) (model.Job, bool) {
	if jj.JobTitle == "" || jj.URL == "" {
		return model.Job{}, false
	}

	location := jj.JobGeo
	if location == "" {
		location = "Remote"
	}

	job := model.Job{
		URL:         jj.URL,
		Title:       jj.JobTitle,
		Company:     jj.CompanyName,
		Location:    location,
		Description: trimDescription(jj.JobDescription),
		Source:      a.Name(),
		Salary:      averageSalary(jj.SalaryMin, jj.SalaryMax),
		EasyApply:   false,
	}

	if jj.PubDate != "" {
		// Jobicy dates look like "2026-08-28 10:30:00".
		if t, err := time.Parse("2006-01-02 15:04:05", jj.PubDate); err == nil {
			utc := t.UTC()
			job.PostedAt = &utc
		}
	}

	return job, true
}
