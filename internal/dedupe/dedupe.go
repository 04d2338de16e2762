// Package dedupe collapses candidates that represent the same real-world
// posting across sources. The grouping key is transient: the store's true
// identity is the posting URL, so same-URL records re-ingested on a later
// run are reconciled by the store's upsert, not here.
package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/reddam/jobscout/internal/model"
)

// Key returns the hex MD5 of the normalized title, company, and location.
// Empty components still hash deterministically; a weak key is a valid key.
func Key(j model.Job) string {
	raw := normalize(j.Title) + "|" + normalize(j.Company) + "|" + normalize(j.Location)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// normalize lower-cases and strips whitespace and punctuation so that
// "Data Engineer" and "data-engineer" group together.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Collapse groups candidates by Key and keeps one representative per group:
// the record with the most populated optional fields. Ties keep the first
// seen. Output preserves first-seen order of the surviving groups.
func Collapse(jobs []model.Job) []model.Job {
	type group struct {
		idx  int // position in the output slice
		best model.Job
	}

	groups := make(map[string]*group, len(jobs))
	var order []string

	for _, j := range jobs {
		k := Key(j)
		g, ok := groups[k]
		if !ok {
			groups[k] = &group{idx: len(order), best: j}
			order = append(order, k)
			continue
		}
		// Richer record wins; strictly greater so first-seen keeps ties.
		if richness(j) > richness(g.best) {
			g.best = j
		}
	}

	out := make([]model.Job, len(order))
	for _, k := range order {
		g := groups[k]
		out[g.idx] = g.best
	}
	return out
}

// richness counts populated optional fields: salary, description,
// applicants, easy-apply, and posted date.
func richness(j model.Job) int {
	n := 0
	if j.Salary != nil {
		n++
	}
	if j.Description != "" {
		n++
	}
	if j.Applicants != nil {
		n++
	}
	if j.EasyApply {
		n++
	}
	if j.PostedAt != nil {
		n++
	}
	return n
}
