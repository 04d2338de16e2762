package adapter

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles double-encoded payloads;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// descriptionLimit caps stored description text; enough for keyword scoring
// without dragging whole postings into the table.
const descriptionLimit = 500

// trimDescription strips markup and truncates to descriptionLimit runes.
func trimDescription(content string) string {
	plain := extractText(content)
	runes := []rune(plain)
	if len(runes) > descriptionLimit {
		return string(runes[:descriptionLimit])
	}
	return plain
}

var salaryNumRegex = regexp.MustCompile(`[\d,]+`)

// parseSalaryText extracts an annualized USD figure from free-form salary
// text like "$90k - $120k / year" or "45/hour". Ranges are averaged;
// hourly, weekly, and monthly figures are annualized. Returns nil when no
// usable number is found.
func parseSalaryText(text string) *int {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var vals []float64
	for _, m := range salaryNumRegex.FindAllString(strings.ReplaceAll(text, "$", ""), -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
		if err != nil || n <= 0 {
			continue
		}
		v := float64(n)
		if strings.Contains(lower, "k") && v < 1000 {
			// "90k" style shorthand
			v *= 1000
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	avg := sum / float64(len(vals))

	switch {
	case strings.Contains(lower, "hour") && avg < 1000:
		avg *= 2080
	case strings.Contains(lower, "week") && avg < 10_000:
		avg *= 52
	case strings.Contains(lower, "month") && avg < 50_000:
		avg *= 12
	}

	annual := int(avg)
	return &annual
}

// averageSalary annualizes a min/max pair where either side may be absent.
func averageSalary(min, max float64) *int {
	var vals []float64
	if min > 0 {
		vals = append(vals, min)
	}
	if max > 0 {
		vals = append(vals, max)
	}
	if len(vals) == 0 {
		return nil
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	avg := int(sum / float64(len(vals)))
	return &avg
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
