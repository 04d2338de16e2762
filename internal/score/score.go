// Package score computes the 0-100 desirability score. The function is pure:
// the same record and reference time always yield the same score, so
// re-scoring on re-ingestion is idempotent.
package score

import (
	"strings"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

// Scorer holds the keyword sets feeding the title, description, and
// employer factors. All matching is case-insensitive substring.
type Scorer struct {
	coreTitleKeywords []string
	techTitleKeywords []string
	includeKeywords   []string
	dreamCompanies    []string
}

// New builds a scorer; keyword lists are lower-cased once up front.
func New(coreTitle, techTitle, include, dream []string) *Scorer {
	return &Scorer{
		coreTitleKeywords: lowerAll(coreTitle),
		techTitleKeywords: lowerAll(techTitle),
		includeKeywords:   lowerAll(include),
		dreamCompanies:    lowerAll(dream),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Factor bonuses. Raw sums can exceed 100 and are clamped.
const (
	bonusCoreTitle   = 20
	bonusTechTitle   = 10
	bonusPerKeyword  = 3
	capKeywords      = 15
	bonusEasyApply   = 15
	bonusRemote      = 10
	bonusDreamers    = 15
	bonusSalaryHigh  = 10 // >= 150k
	bonusSalaryMid   = 5  // >= 100k
)

// Score evaluates every factor independently, sums the bonuses, and clamps
// to [0,100]. Missing optional fields degrade to the factor's neutral value
// rather than erroring.
func (s *Scorer) Score(j model.Job, now time.Time) int {
	points := 0

	points += s.titlePoints(j.Title)
	points += s.descriptionPoints(j.Description)
	points += freshnessPoints(j.PostedAt, now)
	points += applicantsPoints(j.Applicants)
	if j.EasyApply {
		points += bonusEasyApply
	}
	points += locationPoints(j.Location)
	points += salaryPoints(j.Salary)
	points += s.employerPoints(j.Company)

	if points > 100 {
		return 100
	}
	if points < 0 {
		return 0
	}
	return points
}

// titlePoints awards the core-keyword bonus, falling back to the smaller
// tech-keyword bonus when only a technology appears in the title.
func (s *Scorer) titlePoints(title string) int {
	lower := strings.ToLower(title)
	for _, kw := range s.coreTitleKeywords {
		if strings.Contains(lower, kw) {
			return bonusCoreTitle
		}
	}
	for _, kw := range s.techTitleKeywords {
		if strings.Contains(lower, kw) {
			return bonusTechTitle
		}
	}
	return 0
}

// descriptionPoints awards bonusPerKeyword per matched include keyword,
// capped at capKeywords.
func (s *Scorer) descriptionPoints(desc string) int {
	if desc == "" {
		return 0
	}
	lower := strings.ToLower(desc)
	hits := 0
	for _, kw := range s.includeKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	points := hits * bonusPerKeyword
	if points > capKeywords {
		return capKeywords
	}
	return points
}

// freshnessPoints is tiered: only the first matching tier applies.
// A missing posted date earns nothing here (the filter already treats it
// as fresh; scoring stays conservative).
func freshnessPoints(postedAt *time.Time, now time.Time) int {
	if postedAt == nil {
		return 0
	}
	age := now.Sub(*postedAt)
	switch {
	case age <= 12*time.Hour:
		return 25
	case age <= 24*time.Hour:
		return 20
	case age <= 48*time.Hour:
		return 10
	case age <= 72*time.Hour:
		return 5
	default:
		return 0
	}
}

// applicantsPoints rewards low competition. An unknown count earns partial
// credit; a saturated posting (>=100) earns nothing.
func applicantsPoints(applicants *int) int {
	if applicants == nil {
		return 10
	}
	switch n := *applicants; {
	case n < 25:
		return 20
	case n < 50:
		return 15
	case n < 100:
		return 10
	default:
		return 0
	}
}

func locationPoints(location string) int {
	lower := strings.ToLower(location)
	if strings.Contains(lower, "remote") || strings.Contains(lower, "hybrid") {
		return bonusRemote
	}
	return 0
}

func salaryPoints(salary *int) int {
	if salary == nil {
		return 0
	}
	switch {
	case *salary >= 150_000:
		return bonusSalaryHigh
	case *salary >= 100_000:
		return bonusSalaryMid
	default:
		return 0
	}
}

func (s *Scorer) employerPoints(company string) int {
	lower := strings.ToLower(company)
	for _, dream := range s.dreamCompanies {
		if strings.Contains(lower, dream) {
			return bonusDreamers
		}
	}
	return 0
}
