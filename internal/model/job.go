package model

import (
	"context"
	"time"
)

// Job is the canonical posting record flowing through the pipeline.
// URL is the natural key: re-ingesting the same URL updates pipeline-derived
// fields but never resets user state or the notified flag.
type Job struct {
	ID          int64      // store row id, zero until persisted
	URL         string     // direct posting link, unique across the table
	Title       string     // job title
	Company     string     // company name
	Location    string     // location string
	Description string     // free text, optional, trimmed by adapters
	Source      string     // origin adapter name
	Salary      *int       // annualized USD, nil when unlisted
	PostedAt    *time.Time // nil when the source does not provide one
	EasyApply   bool       // only meaningful for direct-apply boards
	Applicants  *int       // nil when the source does not expose a count
	ScrapedAt   time.Time  // our clock, set by the store on insert

	// Derived per run.
	Score int // 0-100

	// Owned by the dashboard; the pipeline never overwrites these once set.
	Applied bool
	Saved   bool
	Notes   string

	// True once the record was part of a successfully delivered digest.
	Notified bool
}

// Age returns how long ago the job was posted, relative to now.
// A missing PostedAt counts as just posted.
func (j Job) Age(now time.Time) time.Duration {
	if j.PostedAt == nil {
		return 0
	}
	return now.Sub(*j.PostedAt)
}

// SourceAdapter fetches postings from one external job source and
// normalizes them into Jobs.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]Job, error)
}

// QueryFilter narrows a Store query. Zero values mean "no constraint".
type QueryFilter struct {
	MinScore int
	Source   string
	Notified *bool
	Limit    int // caps the page, 0 means the store default
}

// UserPatch is a partial update of dashboard-owned fields.
// Nil pointers leave the column untouched.
type UserPatch struct {
	Applied *bool
	Saved   *bool
	Notes   *string
}

// Store persists job records across runs, keyed by URL.
type Store interface {
	// Upsert inserts the job when its URL is unseen, otherwise overwrites
	// only pipeline-derived columns. Reports whether a new row was created.
	Upsert(job Job) (inserted bool, err error)
	// Query returns matching records ordered by score descending.
	Query(f QueryFilter) ([]Job, error)
	// Unnotified returns up to k undelivered records at or above minScore,
	// best score first.
	Unnotified(minScore, k int) ([]Job, error)
	// MarkNotified flips the notified flag for the given URLs.
	MarkNotified(urls []string) error
	// UpdateUserState applies a partial merge of dashboard-owned fields.
	UpdateUserState(id int64, patch UserPatch) error
	Close() error
}

// DigestSink delivers a ranked digest of jobs to an external channel.
// A nil return is the only signal that delivery succeeded.
type DigestSink interface {
	Deliver(ctx context.Context, jobs []Job) error
}

// SyncSink replaces an external tabular mirror with the given records.
type SyncSink interface {
	Sync(ctx context.Context, jobs []Job) error
}
