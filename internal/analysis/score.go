package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mindmate-insights/pkg/types"
)

const (
	// DefaultMinSignificance is the threshold below which a scored pattern
	// is dropped from the surfaced set. The value came from the product as
	// a literal; it is deliberately configurable here.
	DefaultMinSignificance = 0.25

	// Factor weights. Repetition matters most, then chain length, then
	// timing regularity.
	lengthWeight      = 0.3
	occurrenceWeight  = 0.5
	consistencyWeight = 0.2

	// occurrenceSaturation is where the occurrence factor stops growing
	occurrenceSaturation = 3
)

// ScoringConfig controls significance scoring and ranking
type ScoringConfig struct {
	MinSignificance float64 `json:"min_significance"`
}

// DefaultScoringConfig returns the standard scoring parameters
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{MinSignificance: DefaultMinSignificance}
}

// ScoredPattern is a mined pattern with its significance and a
// human-readable description attached
type ScoredPattern struct {
	Pattern
	Significance float64 `json:"significance"`
	Description  string  `json:"description"`
}

var titleCaser = cases.Title(language.English)

// ScorePatterns attaches a significance score in [0,1] and a description to
// every mined pattern. It does not filter or reorder; see RankPatterns.
func ScorePatterns(patterns []Pattern) []ScoredPattern {
	scored := make([]ScoredPattern, 0, len(patterns))
	for i := range patterns {
		scored = append(scored, ScoredPattern{
			Pattern:      patterns[i],
			Significance: significance(&patterns[i]),
			Description:  describePattern(&patterns[i]),
		})
	}
	return scored
}

// RankPatterns drops patterns at or below the significance threshold and
// sorts the rest descending by significance. Ties go to the longer
// sequence, then to more occurrences, then to lexical sequence order so the
// result is fully deterministic.
func RankPatterns(scored []ScoredPattern, cfg ScoringConfig) []ScoredPattern {
	ranked := make([]ScoredPattern, 0, len(scored))
	for i := range scored {
		if scored[i].Significance > cfg.MinSignificance {
			ranked = append(ranked, scored[i])
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Significance != ranked[j].Significance {
			return ranked[i].Significance > ranked[j].Significance
		}
		if len(ranked[i].Sequence) != len(ranked[j].Sequence) {
			return len(ranked[i].Sequence) > len(ranked[j].Sequence)
		}
		if len(ranked[i].Occurrences) != len(ranked[j].Occurrences) {
			return len(ranked[i].Occurrences) > len(ranked[j].Occurrences)
		}
		return ranked[i].Key() < ranked[j].Key()
	})

	return ranked
}

// significance blends chain length, repetition, and timing regularity into
// a single [0,1] score. A pattern seen once cannot demonstrate recurrence,
// so it bypasses the blend and keeps only the length component.
func significance(p *Pattern) float64 {
	lengthScore := float64(len(p.Sequence)) / float64(MaxSupportedLength)

	if len(p.Occurrences) < 2 {
		return lengthWeight * lengthScore
	}

	occurrenceScore := math.Min(1, float64(len(p.Occurrences))/float64(occurrenceSaturation))
	consistency := intervalConsistency(p)

	return lengthWeight*lengthScore + occurrenceWeight*occurrenceScore + consistencyWeight*consistency
}

// intervalConsistency rewards regular recurrence. With fewer than three
// occurrences there is only one gap, so consistency stays at its 1.0
// default.
func intervalConsistency(p *Pattern) float64 {
	if len(p.Occurrences) < 3 {
		return 1.0
	}

	spread := float64((p.Intervals.Max - p.Intervals.Min).Milliseconds())
	avg := math.Max(float64(p.Intervals.Avg.Milliseconds()), 1)
	relativeDifference := spread / avg

	return math.Max(0, 1-relativeDifference/2)
}

// describePattern renders a pattern as a sentence, detecting the circular
// and alternating shapes before falling back to generic phrasing.
//
// Note the alternating phrasing requires three occurrences while length-2
// patterns survive mining with two, so a twice-seen alternation is
// described generically. That boundary is inherited from the product and
// kept on purpose.
func describePattern(p *Pattern) string {
	sequence := p.Sequence
	count := len(p.Occurrences)

	if len(sequence) > 2 && sequence[0] == sequence[len(sequence)-1] {
		return fmt.Sprintf("You tend to cycle back to %s after %s (%d times)",
			emotionName(sequence[0]), joinEmotionNames(sequence[1:len(sequence)-1]), count)
	}

	if len(sequence) == 2 && count >= 3 {
		return fmt.Sprintf("You alternate between %s and %s (%d times)",
			emotionName(sequence[0]), emotionName(sequence[1]), count)
	}

	phrase := fmt.Sprintf("You move from %s to %s", emotionName(sequence[0]), emotionName(sequence[len(sequence)-1]))
	if len(sequence) > 2 {
		phrase += fmt.Sprintf(" through %s", joinEmotionNames(sequence[1:len(sequence)-1]))
	}
	phrase += fmt.Sprintf(" (%d times)", count)
	if count >= 2 && p.Intervals.Avg > 0 {
		phrase += ", typically every " + formatInterval(p.Intervals.Avg)
	}
	return phrase
}

func emotionName(e types.Emotion) string {
	return titleCaser.String(string(e))
}

func joinEmotionNames(emotions []types.Emotion) string {
	names := make([]string, len(emotions))
	for i, e := range emotions {
		names[i] = emotionName(e)
	}
	return strings.Join(names, ", ")
}

// formatInterval buckets a duration into days, hours, or minutes, rounding
// to the nearest whole unit
func formatInterval(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		days := int(math.Round(d.Hours() / 24))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	case d >= time.Hour:
		hours := int(math.Round(d.Hours()))
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		minutes := int(math.Round(d.Minutes()))
		if minutes <= 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
}
