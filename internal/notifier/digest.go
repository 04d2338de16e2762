package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

// Ensure both digest sinks implement model.DigestSink.
var (
	_ model.DigestSink = (*SlackDigest)(nil)
	_ model.DigestSink = (*LogDigest)(nil)
)

// SlackDigest delivers the run's top unnotified jobs as a single Slack
// message via Incoming Webhooks. Delivery is all-or-nothing: any failure
// leaves the notified flags untouched so the records are retried next run.
type SlackDigest struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackDigest returns a digest sink posting to a Slack webhook.
func NewSlackDigest(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackDigest {
	return &SlackDigest{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Deliver posts one Block Kit message summarizing the jobs. A nil return is
// the caller's only signal to mark the records notified.
func (s *SlackDigest) Deliver(ctx context.Context, jobs []model.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	body, err := json.Marshal(buildDigestPayload(jobs))
	if err != nil {
		return fmt.Errorf("marshal digest payload: %w", err)
	}

	resp, err := s.post(ctx, body)
	if err != nil {
		return fmt.Errorf("post digest to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(secs) * time.Second):
		}

		resp2, err := s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("post digest to slack (retry): %w", err)
		}
		defer resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("digest sent", "jobs", len(jobs), "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("digest sent", "jobs", len(jobs))
	return nil
}

func (s *SlackDigest) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

func buildDigestPayload(jobs []model.Job) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{
				Type: "plain_text",
				Text: fmt.Sprintf("📋 Job digest: %d new matches", len(jobs)),
			},
		},
	}

	for _, j := range jobs {
		line := fmt.Sprintf("*<%s|%s>* · %s · %s", j.URL, j.Title, j.Company, j.Location)
		meta := fmt.Sprintf("Score *%d* · %s · %s", j.Score, formatSalary(j.Salary), j.Source)
		if j.EasyApply {
			meta += " · Easy Apply"
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: line + "\n" + meta},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Blocks: blocks}
}

func formatSalary(salary *int) string {
	if salary == nil {
		return "salary n/a"
	}
	return fmt.Sprintf("$%dk/yr", *salary/1000)
}

// LogDigest writes the digest to the given logger as structured messages.
// It never fails, so records surfaced through it are marked notified
// immediately.
type LogDigest struct {
	logger *slog.Logger
}

// NewLogDigest returns a digest sink that logs each job via slog.
func NewLogDigest(logger *slog.Logger) *LogDigest {
	return &LogDigest{logger: logger}
}

// Deliver logs each job with score, company, title, and URL.
func (n *LogDigest) Deliver(_ context.Context, jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{
			"score", j.Score,
			"title", j.Title,
			"company", j.Company,
			"location", j.Location,
			"url", j.URL,
		}
		if j.Salary != nil {
			args = append(args, "salary", *j.Salary)
		}
		n.logger.Info("digest job", args...)
	}
	return nil
}

// SendTestDigest delivers a dummy job through the sink to verify the
// integration works end to end.
func SendTestDigest(sink model.DigestSink) error {
	now := time.Now().UTC()
	salary := 155_000
	testJob := model.Job{
		URL:       "https://example.com/jobs/test-001",
		Title:     "Test Notification: Integration Verified",
		Company:   "Jobscout Test",
		Location:  "Remote",
		Source:    "test",
		Salary:    &salary,
		PostedAt:  &now,
		EasyApply: true,
		Score:     100,
	}
	return sink.Deliver(context.Background(), []model.Job{testJob})
}
