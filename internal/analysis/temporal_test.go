package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate-insights/pkg/types"
)

// Scenario: one entry per day across exactly one calendar week
func TestAggregateByDayOneWeek(t *testing.T) {
	// Sunday through Saturday
	sunday := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	emotions := []types.Emotion{
		types.EmotionJoy, types.EmotionSadness, types.EmotionAnger, types.EmotionFear,
		types.EmotionLove, types.EmotionSurprise, types.EmotionNeutral,
	}

	entries := make([]StreamEntry, 7)
	for i := range entries {
		entries[i] = StreamEntry{Emotion: emotions[i], Timestamp: sunday.AddDate(0, 0, i)}
	}
	stream := streamOf(entries...)

	anchor := sunday.AddDate(0, 0, 6)
	report, err := AggregateByDay(stream, 7, anchor)
	require.NoError(t, err)

	require.Len(t, report.Days, 7)
	nonEmpty := 0
	for i := range report.Days {
		if !report.Days[i].Empty() {
			nonEmpty++
			assert.Equal(t, 1, report.Days[i].EntryCount)
			assert.Equal(t, emotions[i], report.Days[i].Dominant)
		}
	}
	assert.Equal(t, 7, nonEmpty)

	// All weekdays are tied at one entry each; the lowest index wins
	assert.Equal(t, time.Sunday, report.MostActiveWeekday)
}

func TestAggregateByDayIntensitySaturation(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := make([]StreamEntry, 8)
	for i := range entries {
		entries[i] = StreamEntry{Emotion: types.EmotionJoy, Timestamp: day.Add(time.Duration(i) * time.Hour)}
	}
	stream := streamOf(entries...)

	report, err := AggregateByDay(stream, 1, day.Add(12*time.Hour))
	require.NoError(t, err)

	require.Len(t, report.Days, 1)
	assert.Equal(t, 8, report.Days[0].EntryCount)
	assert.Equal(t, 1.0, report.Days[0].Intensity)
}

func TestAggregateByDayPartialIntensity(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	stream := streamOf(
		StreamEntry{Emotion: types.EmotionJoy, Timestamp: day.Add(9 * time.Hour)},
		StreamEntry{Emotion: types.EmotionJoy, Timestamp: day.Add(15 * time.Hour)},
	)

	report, err := AggregateByDay(stream, 1, day.Add(20*time.Hour))
	require.NoError(t, err)

	require.Len(t, report.Days, 1)
	assert.InDelta(t, 0.4, report.Days[0].Intensity, 1e-9)
}

func TestAggregateByDayDominantTieBreak(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	stream := streamOf(
		StreamEntry{Emotion: types.EmotionNeutral, Timestamp: day.Add(9 * time.Hour)},
		StreamEntry{Emotion: types.EmotionAnger, Timestamp: day.Add(10 * time.Hour)},
		StreamEntry{Emotion: types.EmotionLove, Timestamp: day.Add(11 * time.Hour)},
	)

	report, err := AggregateByDay(stream, 1, day.Add(12*time.Hour))
	require.NoError(t, err)

	require.Len(t, report.Days, 1)
	// anger outranks love and neutral in the priority order
	assert.Equal(t, types.EmotionAnger, report.Days[0].Dominant)
}

func TestAggregateByDayIgnoresEntriesOutsideWindow(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stream := streamOf(
		StreamEntry{Emotion: types.EmotionJoy, Timestamp: anchor.AddDate(0, 0, -40)},
		StreamEntry{Emotion: types.EmotionSadness, Timestamp: anchor},
		StreamEntry{Emotion: types.EmotionFear, Timestamp: anchor.AddDate(0, 0, 3)},
	)

	report, err := AggregateByDay(stream, DefaultWindowDays, anchor)
	require.NoError(t, err)

	require.Len(t, report.Days, DefaultWindowDays)
	total := 0
	for i := range report.Days {
		total += report.Days[i].EntryCount
	}
	assert.Equal(t, 1, total, "only the anchored entry falls inside the window")
}

func TestAggregateByDayDistribution(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := []StreamEntry{
		{Emotion: types.EmotionJoy, Timestamp: anchor.AddDate(0, 0, -2)},
		{Emotion: types.EmotionJoy, Timestamp: anchor.AddDate(0, 0, -1)},
		{Emotion: types.EmotionSadness, Timestamp: anchor},
	}
	report, err := AggregateByDay(streamOf(entries...), 7, anchor)
	require.NoError(t, err)

	// Three non-empty days: two dominated by joy, one by sadness
	assert.Equal(t, 67, report.Distribution[types.EmotionJoy])
	assert.Equal(t, 33, report.Distribution[types.EmotionSadness])

	sum := 0
	for _, pct := range report.Distribution {
		sum += pct
	}
	assert.LessOrEqual(t, sum, 100)
}

// Eight non-empty days split 3/5 put both percentages on a .5 boundary;
// nearest rounding alone would yield 38+63=101.
func TestAggregateByDayDistributionHalfBoundary(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := make([]StreamEntry, 8)
	for i := range entries {
		emotion := types.EmotionSadness
		if i < 3 {
			emotion = types.EmotionJoy
		}
		entries[i] = StreamEntry{Emotion: emotion, Timestamp: anchor.AddDate(0, 0, i-7)}
	}

	report, err := AggregateByDay(streamOf(entries...), 14, anchor)
	require.NoError(t, err)

	sum := 0
	for _, pct := range report.Distribution {
		sum += pct
	}
	assert.LessOrEqual(t, sum, 100)
	assert.Equal(t, 37, report.Distribution[types.EmotionJoy])
	assert.Equal(t, 63, report.Distribution[types.EmotionSadness])
}

func TestAggregateGuardsEmptyStream(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for name, stream := range map[string]*NormalizedStream{
		"nil":   nil,
		"empty": streamOf(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := AggregateByDay(stream, 7, anchor)
			var insufficientErr *InsufficientDataError
			require.ErrorAs(t, err, &insufficientErr)

			_, err = AggregateByTimeOfDay(stream)
			require.ErrorAs(t, err, &insufficientErr)
		})
	}
}

func TestAggregateByDayUsesAnchorLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 23:00 UTC on March 9 is already March 10 in UTC+10
	entry := StreamEntry{Emotion: types.EmotionJoy, Timestamp: time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)}
	anchor := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)

	report, err := AggregateByDay(streamOf(entry), 1, anchor)
	require.NoError(t, err)

	require.Len(t, report.Days, 1)
	assert.Equal(t, 1, report.Days[0].EntryCount)
	assert.Equal(t, 10, report.Days[0].Date.Day())
}

func TestAggregateByTimeOfDaySummaries(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	stream := streamOf(
		StreamEntry{Emotion: types.EmotionJoy, Timestamp: day.Add(7 * time.Hour)},
		StreamEntry{Emotion: types.EmotionJoy, Timestamp: day.Add(9 * time.Hour)},
		StreamEntry{Emotion: types.EmotionFear, Timestamp: day.Add(22 * time.Hour)},
	)

	summaries, err := AggregateByTimeOfDay(stream)
	require.NoError(t, err)

	morning := summaries[PeriodMorning]
	assert.Equal(t, types.EmotionJoy, morning.Dominant)
	assert.InDelta(t, 100.0, morning.Percentage, 1e-9)
	assert.Equal(t, 2, morning.Total)

	evening := summaries[PeriodEvening]
	assert.Equal(t, types.EmotionFear, evening.Dominant)

	_, hasNight := summaries[PeriodNight]
	assert.False(t, hasNight, "no entries fell in the night period")
}

func TestPeriodOfBoundaries(t *testing.T) {
	tests := []struct {
		hour int
		want Period
	}{
		{0, PeriodNight}, {5, PeriodNight},
		{6, PeriodMorning}, {11, PeriodMorning},
		{12, PeriodAfternoon}, {17, PeriodAfternoon},
		{18, PeriodEvening}, {23, PeriodEvening},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodOf(tt.hour), "hour %d", tt.hour)
	}
}
