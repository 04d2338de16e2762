package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/reddam/jobscout/internal/pipeline"
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	reportLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Width(18)

	reportValueStyle = lipgloss.NewStyle().
				Bold(true)

	reportWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	reportBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// renderReport formats one run's stats as a terminal summary.
func renderReport(stats pipeline.Stats) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render("Run summary") + "\n\n")

	row := func(label string, value string) {
		b.WriteString(reportLabelStyle.Render(label))
		b.WriteString(reportValueStyle.Render(value))
		b.WriteByte('\n')
	}

	sources := make([]string, 0, len(stats.PerSource))
	for name := range stats.PerSource {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	for _, name := range sources {
		row(name, fmt.Sprintf("%d jobs", stats.PerSource[name]))
	}
	for name, err := range stats.Failures {
		b.WriteString(reportLabelStyle.Render(name))
		b.WriteString(reportWarnStyle.Render(fmt.Sprintf("failed: %v", err)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	row("collected", fmt.Sprintf("%d", stats.Raw))
	row("after dedupe", fmt.Sprintf("%d", stats.AfterDedupe))
	row("after filters", fmt.Sprintf("%d", stats.AfterFilter))
	if len(stats.DroppedBy) > 0 {
		reasons := make([]string, 0, len(stats.DroppedBy))
		for reason := range stats.DroppedBy {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		parts := make([]string, len(reasons))
		for i, reason := range reasons {
			parts[i] = fmt.Sprintf("%s %d", reason, stats.DroppedBy[reason])
		}
		row("dropped", strings.Join(parts, ", "))
	}

	b.WriteByte('\n')
	row("new", fmt.Sprintf("%d", stats.Inserted))
	row("updated", fmt.Sprintf("%d", stats.Updated))
	row("notified", fmt.Sprintf("%d", stats.Notified))
	row("synced", fmt.Sprintf("%d", stats.Synced))

	if stats.DigestErr != nil {
		b.WriteString(reportWarnStyle.Render(fmt.Sprintf("digest failed: %v", stats.DigestErr)) + "\n")
	}
	if stats.SyncErr != nil {
		b.WriteString(reportWarnStyle.Render(fmt.Sprintf("sync failed: %v", stats.SyncErr)) + "\n")
	}

	return reportBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
