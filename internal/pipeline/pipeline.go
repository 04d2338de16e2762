// Package pipeline orchestrates one collection-to-notification pass:
// aggregate → dedupe → filter → score → persist → notify. Each run is a
// single batch; the store is the only state carried between runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/reddam/jobscout/internal/aggregate"
	"github.com/reddam/jobscout/internal/dedupe"
	"github.com/reddam/jobscout/internal/filter"
	"github.com/reddam/jobscout/internal/model"
	"github.com/reddam/jobscout/internal/score"
)

// Stats summarizes one pipeline run for the user-visible report.
type Stats struct {
	PerSource   map[string]int   // raw results per adapter
	Failures    map[string]error // adapter failures
	Raw         int              // total candidates before dedupe
	AfterDedupe int
	AfterFilter int
	DroppedBy   map[string]int // per-rule filter drop counts
	Inserted    int            // new rows this run
	Updated     int            // re-ingested rows this run
	Notified    int            // records in the delivered digest
	Synced      int            // records mirrored to the sync sink
	DigestErr   error          // non-fatal delivery failure, if any
	SyncErr     error          // non-fatal mirror failure, if any
}

// Pipeline wires the stages together around the store.
type Pipeline struct {
	aggregator *aggregate.Aggregator
	rules      filter.Rules
	scorer     *score.Scorer
	store      model.Store
	digest     model.DigestSink
	sync       model.SyncSink

	alertThreshold int // digest eligibility floor
	syncThreshold  int // mirror eligibility floor
	topK           int // digest size

	logger *slog.Logger
}

// New creates a pipeline with all its dependencies.
func New(
	aggregator *aggregate.Aggregator,
	rules filter.Rules,
	scorer *score.Scorer,
	store model.Store,
	digest model.DigestSink,
	sync model.SyncSink,
	alertThreshold, syncThreshold, topK int,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		aggregator:     aggregator,
		rules:          rules,
		scorer:         scorer,
		store:          store,
		digest:         digest,
		sync:           sync,
		alertThreshold: alertThreshold,
		syncThreshold:  syncThreshold,
		topK:           topK,
		logger:         logger,
	}
}

// Run executes one full pass. Store write failures abort the run (rows
// already upserted remain valid); sink failures are recorded in the stats
// and never advance the notified flags.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	now := time.Now().UTC()

	res := p.aggregator.Run(ctx)
	stats := Stats{
		PerSource: res.Counts,
		Failures:  res.Failures,
		Raw:       len(res.Jobs),
	}

	unique := dedupe.Collapse(res.Jobs)
	stats.AfterDedupe = len(unique)

	// Filtering is re-run fresh each pass: a posting that reappears with a
	// corrected salary gets a clean verdict, prior drops are not remembered.
	kept, droppedBy := p.rules.Apply(unique, now)
	stats.AfterFilter = len(kept)
	stats.DroppedBy = droppedBy

	for i := range kept {
		kept[i].Score = p.scorer.Score(kept[i], now)
	}
	// Best candidates first so a mid-run abort persists the most valuable rows.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	for _, j := range kept {
		inserted, err := p.store.Upsert(j)
		if err != nil {
			return stats, fmt.Errorf("persisting run results: %w", err)
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	p.logger.Info("run persisted",
		"raw", stats.Raw,
		"after_dedupe", stats.AfterDedupe,
		"after_filter", stats.AfterFilter,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
	)

	p.notify(ctx, &stats)
	p.mirror(ctx, &stats)

	return stats, nil
}

// notify delivers the digest of top unnotified records and flips their
// notified flags only after confirmed delivery.
func (p *Pipeline) notify(ctx context.Context, stats *Stats) {
	jobs, err := p.store.Unnotified(p.alertThreshold, p.topK)
	if err != nil {
		stats.DigestErr = err
		p.logger.Error("selecting digest jobs failed", "error", err)
		return
	}
	if len(jobs) == 0 {
		p.logger.Info("no new jobs above threshold to notify about")
		return
	}

	if err := p.digest.Deliver(ctx, jobs); err != nil {
		// Flags untouched: the same records are retried next run.
		stats.DigestErr = err
		p.logger.Error("digest delivery failed", "jobs", len(jobs), "error", err)
		return
	}

	urls := make([]string, len(jobs))
	for i, j := range jobs {
		urls[i] = j.URL
	}
	if err := p.store.MarkNotified(urls); err != nil {
		stats.DigestErr = err
		p.logger.Error("marking notified failed", "error", err)
		return
	}
	stats.Notified = len(jobs)
}

// mirror pushes every record above the sync threshold to the tabular sink.
// Failures never affect the store or the digest.
func (p *Pipeline) mirror(ctx context.Context, stats *Stats) {
	jobs, err := p.store.Query(model.QueryFilter{MinScore: p.syncThreshold})
	if err != nil {
		stats.SyncErr = err
		p.logger.Error("selecting sync jobs failed", "error", err)
		return
	}
	if err := p.sync.Sync(ctx, jobs); err != nil {
		stats.SyncErr = err
		p.logger.Error("sync sink failed", "jobs", len(jobs), "error", err)
		return
	}
	stats.Synced = len(jobs)
}
