package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate-insights/internal/analysis"
	"mindmate-insights/pkg/types"
)

func sampleBuilder() *Builder {
	return &Builder{
		SubjectID:   "alice",
		GeneratedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
		Patterns: []analysis.ScoredPattern{
			{
				Pattern: analysis.Pattern{
					Sequence: []types.Emotion{types.EmotionJoy, types.EmotionSadness},
				},
				Significance: 0.85,
				Description:  "You alternate between Joy and Sadness (3 times)",
			},
		},
		Transitions: &analysis.TransitionReport{
			MostFrequent: []analysis.Transition{
				{From: types.EmotionJoy, To: types.EmotionFear, Count: 5, AvgDuration: 2 * time.Hour},
			},
			Cycles: []analysis.Cycle{
				{Path: [3]types.Emotion{types.EmotionJoy, types.EmotionSadness, types.EmotionJoy}, Count: 2},
			},
		},
		Daily: &analysis.DailyReport{
			WeekdayTotals:     map[time.Weekday]int{time.Sunday: 3},
			MostActiveWeekday: time.Sunday,
			Days: []analysis.DayBucket{
				{
					Date:       time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
					Dominant:   types.EmotionJoy,
					EntryCount: 3,
					Intensity:  0.6,
				},
			},
		},
	}
}

func TestMarkdownSections(t *testing.T) {
	md := sampleBuilder().Markdown()

	assert.Contains(t, md, "# Emotional Insights")
	assert.Contains(t, md, "Subject: `alice`")
	assert.Contains(t, md, "## Recurring Patterns")
	assert.Contains(t, md, "**Joy → Sadness** (significance 0.85)")
	assert.Contains(t, md, "## Emotional Shifts")
	assert.Contains(t, md, "- Joy → Fear: 5 times, typically 2 hours apart")
	assert.Contains(t, md, "- Joy → Sadness → Joy (2 times)")
	assert.Contains(t, md, "## Daily Rhythm")
	assert.Contains(t, md, "Most active day: **Sunday**")
	assert.Contains(t, md, "| 2025-03-02 | Joy | 3 | 0.6 |")
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	b := &Builder{GeneratedAt: time.Now()}
	md := b.Markdown()

	assert.NotContains(t, md, "Recurring Patterns")
	assert.NotContains(t, md, "Emotional Shifts")
	assert.NotContains(t, md, "Daily Rhythm")
	assert.NotContains(t, md, "Subject:")
}

func TestHTMLRendering(t *testing.T) {
	html, err := sampleBuilder().HTML()
	require.NoError(t, err)

	assert.True(t, strings.Contains(html, "<h1>") || strings.Contains(html, "<h1 "))
	assert.Contains(t, html, "Emotional Insights")
	assert.Contains(t, html, "<table>")
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "1 minute"},
		{45 * time.Minute, "45 minutes"},
		{time.Hour, "1 hour"},
		{5 * time.Hour, "5 hours"},
		{24 * time.Hour, "1 day"},
		{72 * time.Hour, "3 days"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatDuration(tc.in), tc.in.String())
	}
}
