package aggregate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

type fakeAdapter struct {
	name  string
	jobs  []model.Job
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]model.Job, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.jobs, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_MergesAllSources(t *testing.T) {
	a := &fakeAdapter{name: "alpha", jobs: []model.Job{{URL: "a1"}, {URL: "a2"}}}
	b := &fakeAdapter{name: "beta", jobs: []model.Job{{URL: "b1"}}}

	agg := New([]model.SourceAdapter{a, b}, 4, time.Second, discardLogger())
	res := agg.Run(context.Background())

	if len(res.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(res.Jobs))
	}
	if res.Counts["alpha"] != 2 || res.Counts["beta"] != 1 {
		t.Errorf("unexpected counts: %v", res.Counts)
	}
	if len(res.Failures) != 0 {
		t.Errorf("unexpected failures: %v", res.Failures)
	}
}

func TestRun_FailingSourceContributesZero(t *testing.T) {
	ok := &fakeAdapter{name: "ok", jobs: []model.Job{{URL: "u1"}}}
	bad := &fakeAdapter{name: "bad", err: errors.New("boom")}

	agg := New([]model.SourceAdapter{ok, bad}, 4, time.Second, discardLogger())
	res := agg.Run(context.Background())

	if len(res.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(res.Jobs))
	}
	if res.Counts["bad"] != 0 {
		t.Errorf("expected zero count for failing source, got %d", res.Counts["bad"])
	}
	if res.Failures["bad"] == nil {
		t.Error("expected failure recorded for bad source")
	}
}

func TestRun_SlowSourceTimesOut(t *testing.T) {
	slow := &fakeAdapter{name: "slow", delay: 500 * time.Millisecond, jobs: []model.Job{{URL: "s1"}}}
	fast := &fakeAdapter{name: "fast", jobs: []model.Job{{URL: "f1"}}}

	agg := New([]model.SourceAdapter{slow, fast}, 4, 50*time.Millisecond, discardLogger())
	res := agg.Run(context.Background())

	if len(res.Jobs) != 1 {
		t.Fatalf("expected only the fast source's job, got %d", len(res.Jobs))
	}
	if res.Jobs[0].URL != "f1" {
		t.Errorf("unexpected job: %s", res.Jobs[0].URL)
	}
	if !errors.Is(res.Failures["slow"], context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded for slow source, got %v", res.Failures["slow"])
	}
}

func TestRun_AllAdaptersCalled(t *testing.T) {
	adapters := make([]model.SourceAdapter, 0, 5)
	fakes := make([]*fakeAdapter, 0, 5)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		f := &fakeAdapter{name: name}
		fakes = append(fakes, f)
		adapters = append(adapters, f)
	}

	// Concurrency below the adapter count still reaches every adapter.
	agg := New(adapters, 2, time.Second, discardLogger())
	agg.Run(context.Background())

	for _, f := range fakes {
		if f.calls.Load() != 1 {
			t.Errorf("adapter %s called %d times", f.name, f.calls.Load())
		}
	}
}
