package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reddam/jobscout/internal/model"
	"github.com/reddam/jobscout/internal/ratelimit"
)

const (
	greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"
	leverBaseURL      = "https://api.lever.co/v0/postings"
)

// Board identifies one ATS board polled by the multi-board adapter.
type Board struct {
	Name  string // display company name
	ATS   string // "greenhouse" or "lever"
	Token string // board token / company slug
}

// greenhouseJob represents a single job in the Greenhouse boards API response.
type greenhouseJob struct {
	ID          int64 `json:"id"`
	Title       string `json:"title"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// leverJob represents a single job in the Lever postings API response.
type leverJob struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Categories struct {
		Location     string   `json:"location"`
		AllLocations []string `json:"allLocations"`
	} `json:"categories"`
	DescriptionPlain string `json:"descriptionPlain"`
	CreatedAt        int64  `json:"createdAt"`
	HostedURL        string `json:"hostedUrl"`
}

// BoardsAdapter aggregates several ATS career boards (Greenhouse and Lever
// public APIs) under one adapter surface. Each board is fetched in turn;
// a failing board is logged and skipped so the rest still contribute.
type BoardsAdapter struct {
	boards            []Board
	greenhouseBaseURL string
	leverBaseURL      string
	client            *http.Client
	limiter           *ratelimit.HostLimiter
	logger            *slog.Logger
}

// NewBoardsAdapter creates the multi-board adapter for the given boards.
func NewBoardsAdapter(boards []Board, client *http.Client, limiter *ratelimit.HostLimiter, logger *slog.Logger) *BoardsAdapter {
	return &BoardsAdapter{
		boards:            boards,
		greenhouseBaseURL: greenhouseBaseURL,
		leverBaseURL:      leverBaseURL,
		client:            client,
		limiter:           limiter,
		logger:            logger,
	}
}

// Name implements model.SourceAdapter.
func (a *BoardsAdapter) Name() string { return "boards" }

// Fetch retrieves jobs from every configured board and normalizes them.
// Fetch errors only when no board produced results.
func (a *BoardsAdapter) Fetch(ctx context.Context) ([]model.Job, error) {
	var (
		jobs     []model.Job
		seen     = make(map[string]struct{})
		skipped  int
		firstErr error
	)

	for _, b := range a.boards {
		var (
			batch []model.Job
			err   error
		)
		switch b.ATS {
		case "greenhouse":
			batch, err = a.fetchGreenhouse(ctx, b)
		case "lever":
			batch, err = a.fetchLever(ctx, b)
		default:
			a.logger.Warn("unsupported ats, skipping board", "board", b.Name, "ats", b.ATS)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return jobs, err
			}
			a.logger.Warn("board fetch failed", "board", b.Name, "ats", b.ATS, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, job := range batch {
			if job.Title == "" || job.URL == "" {
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
		a.logger.Debug("boards skipped malformed entries", "count", skipped)
	}
	if len(jobs) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return jobs, nil
}

func (a *BoardsAdapter) fetchGreenhouse(ctx context.Context, b Board) ([]model.Job, error) {
	if err := a.limiter.Wait(ctx, "boards-api.greenhouse.io"); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/jobs", a.greenhouseBaseURL, b.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", b.Token, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", b.Token, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s: unexpected status %d", b.Token, resp.StatusCode),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", b.Token, err)
	}

	jobs := make([]model.Job, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		job := model.Job{
			URL:      gj.AbsoluteURL,
			Title:    gj.Title,
			Company:  b.Name,
			Location: gj.Location.Name,
			Source:   a.Name(),
		}
		if gj.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
				job.PostedAt = &t
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (a *BoardsAdapter) fetchLever(ctx context.Context, b Board) ([]model.Job, error) {
	if err := a.limiter.Wait(ctx, "api.lever.co"); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s?mode=json", a.leverBaseURL, b.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", b.Token, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", b.Token, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("lever fetch for %s: unexpected status %d", b.Token, resp.StatusCode),
		}
	}

	var leverJobs []leverJob
	if err := json.NewDecoder(resp.Body).Decode(&leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", b.Token, err)
	}

	jobs := make([]model.Job, 0, len(leverJobs))
	for _, lj := range leverJobs {
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		job := model.Job{
			URL:         lj.HostedURL,
			Title:       lj.Text,
			Company:     b.Name,
			Location:    location,
			Description: trimDescription(lj.DescriptionPlain),
			Source:      a.Name(),
		}
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			job.PostedAt = &t
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
