package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate-insights/pkg/types"
)

func patternWith(sequence []types.Emotion, starts []time.Time) Pattern {
	occurrences := make([]Occurrence, len(starts))
	for i, start := range starts {
		timestamps := make([]time.Time, len(sequence))
		for j := range sequence {
			timestamps[j] = start.Add(time.Duration(j) * time.Minute)
		}
		occurrences[i] = Occurrence{StartIndex: i, Timestamps: timestamps}
	}
	p := Pattern{Sequence: sequence, Occurrences: occurrences}
	p.Intervals = computeIntervals(p.Occurrences)
	return p
}

func TestSignificanceBounds(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	patterns := []Pattern{
		patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear}, []time.Time{base}),
		patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear}, []time.Time{base, base.Add(time.Hour)}),
		patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear},
			[]time.Time{base, base.Add(time.Minute), base.Add(100 * time.Hour)}),
		patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear, types.EmotionJoy, types.EmotionFear},
			[]time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour), base.Add(3 * time.Hour)}),
	}

	for _, scored := range ScorePatterns(patterns) {
		assert.GreaterOrEqual(t, scored.Significance, 0.0, "pattern %s", scored.Key())
		assert.LessOrEqual(t, scored.Significance, 1.0, "pattern %s", scored.Key())
	}
}

func TestSignificanceSingleOccurrencePenalty(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	pair := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear}, []time.Time{base})
	triple := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear, types.EmotionAnger}, []time.Time{base})

	scored := ScorePatterns([]Pattern{pair, triple})
	assert.InDelta(t, 0.3*2.0/4.0, scored[0].Significance, 1e-9)
	assert.InDelta(t, 0.3*3.0/4.0, scored[1].Significance, 1e-9)
}

// Perfectly regular recurrence keeps full interval consistency
func TestSignificancePerfectConsistency(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pattern := patternWith([]types.Emotion{types.EmotionFear, types.EmotionFear},
		[]time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)})

	require.Equal(t, 1.0, intervalConsistency(&pattern))

	scored := ScorePatterns([]Pattern{pattern})
	// 0.3*(2/4) + 0.5*min(1,3/3) + 0.2*1.0
	assert.InDelta(t, 0.15+0.5+0.2, scored[0].Significance, 1e-9)
}

func TestIntervalConsistencyIrregular(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pattern := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear},
		[]time.Time{base, base.Add(time.Minute), base.Add(10 * time.Hour)})

	consistency := intervalConsistency(&pattern)
	assert.Less(t, consistency, 1.0)
	assert.GreaterOrEqual(t, consistency, 0.0)
}

// Scenario guard: two occurrences of a length-2 pattern pass the mining
// minimum but must NOT get the alternating phrasing, which needs three
func TestDescribeTwoOccurrencePairIsNotAlternating(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pattern := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionSadness},
		[]time.Time{base, base.Add(2 * time.Hour)})

	description := describePattern(&pattern)
	assert.NotContains(t, description, "alternate")
	assert.Contains(t, description, "You move from Joy to Sadness")
}

func TestDescribeAlternating(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pattern := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear},
		[]time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)})

	description := describePattern(&pattern)
	assert.Equal(t, "You alternate between Joy and Fear (3 times)", description)
}

func TestDescribeCircular(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pattern := patternWith(
		[]types.Emotion{types.EmotionJoy, types.EmotionSadness, types.EmotionAnger, types.EmotionJoy},
		[]time.Time{base, base.Add(24 * time.Hour)})

	description := describePattern(&pattern)
	assert.Equal(t, "You tend to cycle back to Joy after Sadness, Anger (2 times)", description)
}

func TestDescribeGenericWithInterval(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pattern := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionSadness, types.EmotionFear},
		[]time.Time{base, base.Add(2 * time.Hour)})

	description := describePattern(&pattern)
	assert.Equal(t, "You move from Joy to Fear through Sadness (2 times), typically every 2 hours", description)
}

func TestRankPatternsThresholdAndOrder(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	patterns := []Pattern{
		// Single occurrence pair: 0.15, at or below the 0.25 threshold
		patternWith([]types.Emotion{types.EmotionAnger, types.EmotionFear}, []time.Time{base}),
		// Strong pair seen three times
		patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear},
			[]time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}),
		// Longer chain seen twice
		patternWith([]types.Emotion{types.EmotionJoy, types.EmotionSadness, types.EmotionAnger, types.EmotionFear},
			[]time.Time{base, base.Add(time.Hour)}),
	}

	ranked := RankPatterns(ScorePatterns(patterns), DefaultScoringConfig())

	require.Len(t, ranked, 2)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Significance, ranked[i].Significance)
	}
	for _, scored := range ranked {
		assert.Greater(t, scored.Significance, DefaultMinSignificance)
	}
}

func TestRankPatternsTieBreaksLongerFirst(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	short := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear}, []time.Time{base, base.Add(time.Hour)})
	long := patternWith([]types.Emotion{types.EmotionJoy, types.EmotionFear, types.EmotionJoy}, []time.Time{base, base.Add(time.Hour)})

	scored := ScorePatterns([]Pattern{short, long})
	// Force a significance tie so only the tie-break ordering decides
	scored[0].Significance = 0.5
	scored[1].Significance = 0.5

	ranked := RankPatterns(scored, DefaultScoringConfig())
	require.Len(t, ranked, 2)
	assert.Len(t, ranked[0].Sequence, 3)
	assert.Len(t, ranked[1].Sequence, 2)
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "1 minute"},
		{time.Minute, "1 minute"},
		{12 * time.Minute, "12 minutes"},
		{90 * time.Minute, "2 hours"},
		{time.Hour, "1 hour"},
		{23 * time.Hour, "23 hours"},
		{24 * time.Hour, "1 day"},
		{3*24*time.Hour + 11*time.Hour, "3 days"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatInterval(tt.d), "duration %s", tt.d)
	}
}
