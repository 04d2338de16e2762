// Package aggregate fans out over all enabled source adapters and merges
// their output into a single candidate list. It is purely a fan-out/fan-in
// join point: no deduplication or validation happens here.
package aggregate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reddam/jobscout/internal/model"
)

// Result is the merged output of one aggregation pass.
type Result struct {
	Jobs     []model.Job
	Counts   map[string]int   // per-source result counts
	Failures map[string]error // per-source errors, for the run report
}

// Aggregator runs every adapter concurrently and collects results even when
// some fail. One failing or slow adapter never blocks the others beyond its
// own timeout.
type Aggregator struct {
	adapters    []model.SourceAdapter
	concurrency int
	timeout     time.Duration // cap on each adapter's fetch
	logger      *slog.Logger
}

// New creates an aggregator over the given adapters. concurrency bounds the
// parallel fetches; timeout caps each adapter's call.
func New(adapters []model.SourceAdapter, concurrency int, timeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		adapters:    adapters,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logger,
	}
}

// Run fetches from all adapters and merges their output. Adapter errors are
// recorded in the result, never propagated; the only error cases are
// cancellation of the parent context.
func (a *Aggregator) Run(ctx context.Context) Result {
	res := Result{
		Counts:   make(map[string]int, len(a.adapters)),
		Failures: make(map[string]error),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, ad := range a.adapters {
		g.Go(func() error {
			fctx := gctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, a.timeout)
				defer cancel()
			}

			jobs, err := ad.Fetch(fctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// A timed-out or failed source contributes zero results.
				res.Failures[ad.Name()] = err
				res.Counts[ad.Name()] = 0
				a.logger.Error("source failed", "source", ad.Name(), "error", err)
				return nil
			}
			res.Counts[ad.Name()] = len(jobs)
			res.Jobs = append(res.Jobs, jobs...)
			a.logger.Info("source fetched", "source", ad.Name(), "jobs", len(jobs))
			return nil
		})
	}

	// Goroutines only ever return nil; the join waits for all of them.
	_ = g.Wait()

	return res
}
