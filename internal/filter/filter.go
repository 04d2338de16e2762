// Package filter applies the hard eligibility rules. Records are dropped,
// never soft-penalized; scoring happens afterwards on the survivors.
package filter

import (
	"strings"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

// Drop reasons, used as keys in the per-rule drop counts.
const (
	ReasonSalary  = "salary_below_floor"
	ReasonKeyword = "excluded_keyword"
	ReasonStale   = "stale"
)

// Rules holds the configured exclusion thresholds.
type Rules struct {
	MinSalary       int           // floor applied only when salary is known
	ExcludeKeywords []string      // matched in lower-cased title+description
	MaxAge          time.Duration // freshness window; missing dates are fresh
}

// NewRules returns rules with lower-cased keywords ready for matching.
func NewRules(minSalary int, excludeKeywords []string, maxAge time.Duration) Rules {
	lowered := make([]string, len(excludeKeywords))
	for i, kw := range excludeKeywords {
		lowered[i] = strings.ToLower(kw)
	}
	return Rules{
		MinSalary:       minSalary,
		ExcludeKeywords: lowered,
		MaxAge:          maxAge,
	}
}

// Reject returns the drop reason for the job, or "" when it passes.
// Rules are checked in order: salary floor, exclude keywords, staleness.
func (r Rules) Reject(j model.Job, now time.Time) string {
	if j.Salary != nil && *j.Salary < r.MinSalary {
		return ReasonSalary
	}

	combined := strings.ToLower(j.Title + " " + j.Description)
	for _, kw := range r.ExcludeKeywords {
		if strings.Contains(combined, kw) {
			return ReasonKeyword
		}
	}

	// Missing posted date is treated as fresh, never stale.
	if j.PostedAt != nil && now.Sub(*j.PostedAt) > r.MaxAge {
		return ReasonStale
	}

	return ""
}

// Apply runs every candidate through the rules and returns the survivors
// plus a drop count per reason.
func (r Rules) Apply(jobs []model.Job, now time.Time) ([]model.Job, map[string]int) {
	kept := make([]model.Job, 0, len(jobs))
	dropped := make(map[string]int)

	for _, j := range jobs {
		if reason := r.Reject(j, now); reason != "" {
			dropped[reason]++
			continue
		}
		kept = append(kept, j)
	}
	return kept, dropped
}
