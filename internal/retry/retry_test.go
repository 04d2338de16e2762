package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAdapter calls a function on each invocation, tracking call count.
type mockAdapter struct {
	calls int
	fn    func(attempt int) ([]model.Job, error)
}

func (m *mockAdapter) Name() string { return "mock" }

func (m *mockAdapter) Fetch(_ context.Context) ([]model.Job, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	jobs := []model.Job{{URL: "https://example.com/1", Title: "Engineer"}}
	mock := &mockAdapter{fn: func(_ int) ([]model.Job, error) {
		return jobs, nil
	}}

	ra := Wrap(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := ra.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].URL != "https://example.com/1" {
		t.Fatalf("unexpected jobs: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	jobs := []model.Job{{URL: "https://example.com/1"}}
	mock := &mockAdapter{fn: func(attempt int) ([]model.Job, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return jobs, nil
	}}

	ra := Wrap(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := ra.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 job, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Job, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	ra := Wrap(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := ra.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Job, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ra := Wrap(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := ra.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	jobs := []model.Job{{URL: "https://example.com/1"}}
	mock := &mockAdapter{fn: func(attempt int) ([]model.Job, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{
				StatusCode: 429,
				RetryAfter: 80 * time.Millisecond,
				Err:        errors.New("rate limited"),
			}
		}
		return jobs, nil
	}}

	ra := Wrap(mock, 2, time.Millisecond, discardLogger())
	start := time.Now()
	_, err := ra.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
		t.Errorf("expected Retry-After to govern the delay, waited only %v", elapsed)
	}
}

func TestRetry_DoesNotRetryContextCancellation(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Job, error) {
		return nil, context.Canceled
	}}

	ra := Wrap(mock, 3, 10*time.Millisecond, discardLogger())
	_, err := ra.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_StopsWhenContextCancelledMidBackoff(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.Job, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ra := Wrap(mock, 5, time.Second, discardLogger())
	_, err := ra.Fetch(ctx)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}
