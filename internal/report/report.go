// Package report renders analysis results as a markdown insight report,
// with optional HTML conversion for web clients.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mindmate-insights/internal/analysis"
)

var titleCaser = cases.Title(language.English)

// Builder assembles an insight report from the individual analysis outputs.
// All sections are optional; callers include whatever analyses they ran.
type Builder struct {
	SubjectID   string
	GeneratedAt time.Time
	Patterns    []analysis.ScoredPattern
	Transitions *analysis.TransitionReport
	Daily       *analysis.DailyReport
}

// Markdown renders the report as a markdown document
func (b *Builder) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Emotional Insights\n\n")
	if b.SubjectID != "" {
		fmt.Fprintf(&sb, "Subject: `%s`  \n", b.SubjectID)
	}
	fmt.Fprintf(&sb, "Generated: %s\n", b.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if len(b.Patterns) > 0 {
		sb.WriteString("\n## Recurring Patterns\n\n")
		for _, p := range b.Patterns {
			fmt.Fprintf(&sb, "- **%s** (significance %.2f): %s\n", patternLabel(p), p.Significance, p.Description)
		}
	}

	if b.Transitions != nil {
		writeTransitionSection(&sb, b.Transitions)
	}

	if b.Daily != nil {
		writeDailySection(&sb, b.Daily)
	}

	return sb.String()
}

// HTML converts the markdown report to HTML
func (b *Builder) HTML() (string, error) {
	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := md.Convert([]byte(b.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

func patternLabel(p analysis.ScoredPattern) string {
	parts := make([]string, len(p.Sequence))
	for i, e := range p.Sequence {
		parts[i] = titleCaser.String(string(e))
	}
	return strings.Join(parts, " → ")
}

func writeTransitionSection(sb *strings.Builder, tr *analysis.TransitionReport) {
	sb.WriteString("\n## Emotional Shifts\n\n")
	if len(tr.MostFrequent) == 0 {
		sb.WriteString("No repeated shifts yet.\n")
		return
	}
	for _, t := range tr.MostFrequent {
		line := fmt.Sprintf("- %s → %s: %d times", titleCaser.String(string(t.From)), titleCaser.String(string(t.To)), t.Count)
		if t.AvgDuration > 0 {
			line += fmt.Sprintf(", typically %s apart", formatDuration(t.AvgDuration))
		}
		sb.WriteString(line + "\n")
	}
	if len(tr.Cycles) > 0 {
		sb.WriteString("\nRecurring loops:\n\n")
		for _, c := range tr.Cycles {
			fmt.Fprintf(sb, "- %s → %s → %s (%d times)\n",
				titleCaser.String(string(c.Path[0])),
				titleCaser.String(string(c.Path[1])),
				titleCaser.String(string(c.Path[2])),
				c.Count)
		}
	}
}

func writeDailySection(sb *strings.Builder, d *analysis.DailyReport) {
	sb.WriteString("\n## Daily Rhythm\n\n")
	if len(d.WeekdayTotals) > 0 {
		fmt.Fprintf(sb, "Most active day: **%s**\n\n", d.MostActiveWeekday)
	}
	sb.WriteString("| Date | Dominant | Entries | Intensity |\n")
	sb.WriteString("|------|----------|---------|-----------|\n")
	for _, day := range d.Days {
		if day.Empty() {
			continue
		}
		fmt.Fprintf(sb, "| %s | %s | %d | %.1f |\n",
			day.Date.Format("2006-01-02"),
			titleCaser.String(string(day.Dominant)),
			day.EntryCount,
			day.Intensity)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case d >= time.Hour:
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		minutes := int(d.Minutes())
		if minutes <= 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
}
