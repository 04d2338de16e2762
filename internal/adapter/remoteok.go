package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reddam/jobscout/internal/model"
	"github.com/reddam/jobscout/internal/ratelimit"
)

const remoteOKBaseURL = "https://remoteok.com/api"

// remoteOKJob represents a single job in the RemoteOK API response.
// The first array element is a legal notice and carries none of these fields.
type remoteOKJob struct {
	ID        string   `json:"id"`
	Position  string   `json:"position"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	URL       string   `json:"url"`
	Tags      []string `json:"tags"`
	SalaryMin float64  `json:"salary_min"`
	SalaryMax float64  `json:"salary_max"`
	Epoch     int64    `json:"epoch"`
}

// RemoteOKAdapter fetches jobs from the RemoteOK public API, one request
// per configured tag.
type RemoteOKAdapter struct {
	tags    []string
	baseURL string
	client  *http.Client
	limiter *ratelimit.HostLimiter
	logger  *slog.Logger
}

// NewRemoteOKAdapter creates an adapter for the RemoteOK API.
func NewRemoteOKAdapter(tags []string, client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) *RemoteOKAdapter {
	return &RemoteOKAdapter{
		tags:    tags,
		baseURL: remoteOKBaseURL,
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Name implements model.SourceAdapter.
func (a *RemoteOKAdapter) Name() string { return "remoteok" }

// Fetch retrieves jobs for every configured tag. Failing tags are logged
// and skipped; Fetch errors only when no tag produced results.
func (a *RemoteOKAdapter) Fetch(ctx context.Context) ([]model.Job, error) {
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
			a.logger.Warn("remoteok tag failed", "tag", tag, "error", err)
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
		a.logger.Debug("remoteok skipped malformed entries", "count", skipped)
	}
	if len(jobs) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return jobs, nil
}

func (a *RemoteOKAdapter) fetchTag(ctx context.Context, tag string) ([]remoteOKJob, error) {
	if err := a.limiter.Wait(ctx, "remoteok.com"); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?tags="+tag, nil)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch for %s: %w", tag, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remoteok fetch for %s: %w", tag, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remoteok fetch for %s: unexpected status %d", tag, resp.StatusCode),
		}
	}

	// The payload is a heterogeneous array: element 0 is a legal notice.
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("remoteok fetch for %s: %w", tag, err)
	}
	if len(raw) <= 1 {
		return nil, nil
	}

	batch := make([]remoteOKJob, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		var rj remoteOKJob
		if err := json.Unmarshal(msg, &rj); err != nil {
			// Individual malformed elements are skipped, not fatal.
			continue
		}
		batch = append(batch, rj)
	}
	return batch, nil
}

func (a *RemoteOKAdapter) normalize(rj remoteOKJob) (model.Job, bool) {
	if rj.Position == "" {
		return model.Job{}, false
	}

	jobURL := rj.URL
	if jobURL == "" {
		if rj.ID == "" {
			return model.Job{}, false
		}
		jobURL = "https://remoteok.com/l/" + rj.ID
	}

	location := rj.Location
	if location == "" {
		location = "Remote"
	}

	var desc string
	if len(rj.Tags) > 0 {
		// No description in the list payload; tags still feed keyword scoring.
		desc = ""
		for i, t := range rj.Tags {
			if i > 0 {
				desc += " "
			}
			desc += t
		}
	}

	job := model.Job{
		URL:         jobURL,
		Title:       rj.Position,
		Company:     rj.Company,
		Location:    location,
		Description: desc,
		Source:      a.Name(),
		Salary:      averageSalary(rj.SalaryMin, rj.SalaryMax),
		EasyApply:   true, // RemoteOK listings are direct apply
	}

	if rj.Epoch > 0 {
		t := time.Unix(rj.Epoch, 0).UTC()
		job.PostedAt = &t
	}

	return job, true
}
