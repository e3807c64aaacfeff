package analysis

import (
	"math"
	"time"

	"mindmate-insights/pkg/types"
)

const (
	// DefaultWindowDays is the default calendar window for day aggregation
	DefaultWindowDays = 28

	// intensitySaturation is the entry count at which a day's intensity
	// reaches 1.0
	intensitySaturation = 5
)

// DayBucket aggregates one calendar day of entries
type DayBucket struct {
	// Date is midnight at the start of the day, in the anchor's location
	Date       time.Time             `json:"date"`
	Counts     map[types.Emotion]int `json:"counts"`
	Dominant   types.Emotion         `json:"dominant"`
	EntryCount int                   `json:"entry_count"`
	// Intensity saturates at intensitySaturation entries per day
	Intensity float64 `json:"intensity"`
}

// Empty reports whether the day has no entries
func (b *DayBucket) Empty() bool {
	return b.EntryCount == 0
}

// DailyReport is the calendar view over a window of days
type DailyReport struct {
	// Days holds one bucket per calendar day in the window, oldest first,
	// including empty days
	Days []DayBucket `json:"days"`
	// WeekdayTotals sums entry counts per weekday (Sunday = 0)
	WeekdayTotals map[time.Weekday]int `json:"weekday_totals"`
	// MostActiveWeekday is the weekday with the highest total count; the
	// lowest index wins ties
	MostActiveWeekday time.Weekday `json:"most_active_weekday"`
	// Distribution maps each emotion to the integer percentage of
	// non-empty days it dominated. Rounding may make the sum fall short
	// of 100; that is left as-is. The sum never exceeds 100.
	Distribution map[types.Emotion]int `json:"distribution"`
}

// AggregateByDay buckets the stream into calendar days over the windowDays
// days ending at anchor. Bucket boundaries use anchor's location, so the
// caller picks the timezone by anchoring appropriately. Unlike mining,
// aggregation is well-defined for any non-empty stream.
func AggregateByDay(stream *NormalizedStream, windowDays int, anchor time.Time) (*DailyReport, error) {
	if stream == nil || stream.Len() == 0 {
		return nil, &InsufficientDataError{ValidCount: 0}
	}
	if windowDays < 1 {
		windowDays = DefaultWindowDays
	}

	loc := anchor.Location()
	anchorDay := startOfDay(anchor, loc)
	windowStart := anchorDay.AddDate(0, 0, -(windowDays - 1))

	days := make([]DayBucket, windowDays)
	for i := range days {
		days[i] = DayBucket{
			Date:   windowStart.AddDate(0, 0, i),
			Counts: make(map[types.Emotion]int),
		}
	}

	for i := range stream.Entries {
		day := startOfDay(stream.Entries[i].Timestamp.In(loc), loc)
		index := daysBetween(windowStart, day)
		if index < 0 || index >= windowDays {
			continue
		}
		days[index].Counts[stream.Entries[i].Emotion]++
		days[index].EntryCount++
	}

	weekdayTotals := make(map[time.Weekday]int)
	nonEmpty := 0
	dominantDays := make(map[types.Emotion]int)
	for i := range days {
		weekdayTotals[days[i].Date.Weekday()] += days[i].EntryCount
		if days[i].Empty() {
			continue
		}
		nonEmpty++
		dominant, _ := dominantEmotion(days[i].Counts)
		days[i].Dominant = dominant
		days[i].Intensity = math.Min(1, float64(days[i].EntryCount)/intensitySaturation)
		dominantDays[dominant]++
	}

	return &DailyReport{
		Days:              days,
		WeekdayTotals:     weekdayTotals,
		MostActiveWeekday: mostActiveWeekday(weekdayTotals),
		Distribution:      dominantDistribution(dominantDays, nonEmpty),
	}, nil
}

// dominantDistribution converts dominant-day counts into nearest-integer
// percentages of non-empty days. The sum must never exceed 100, but a
// shortfall from rounding down is left as-is; when nearest rounding
// overshoots, the overage is trimmed from the emotions that gained the
// most in rounding, ties broken by priority order.
func dominantDistribution(dominantDays map[types.Emotion]int, nonEmpty int) map[types.Emotion]int {
	distribution := make(map[types.Emotion]int)
	if nonEmpty == 0 {
		return distribution
	}

	sum := 0
	gains := make(map[types.Emotion]float64)
	for emotion, count := range dominantDays {
		exact := float64(count) / float64(nonEmpty) * 100
		rounded := int(math.Round(exact))
		distribution[emotion] = rounded
		gains[emotion] = float64(rounded) - exact
		sum += rounded
	}

	for sum > 100 {
		var trim types.Emotion
		bestGain := math.Inf(-1)
		for _, emotion := range types.PriorityOrder {
			if distribution[emotion] > 0 && gains[emotion] > bestGain {
				trim = emotion
				bestGain = gains[emotion]
			}
		}
		distribution[trim]--
		gains[trim]--
		sum--
	}
	return distribution
}

// AggregateByTimeOfDay summarizes dominant emotions per time-of-day period
func AggregateByTimeOfDay(stream *NormalizedStream) (map[Period]PeriodSummary, error) {
	if stream == nil || stream.Len() == 0 {
		return nil, &InsufficientDataError{ValidCount: 0}
	}
	return timeOfDaySummaries(stream), nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b; both must be midnights in
// the same location. Rounding absorbs the off-by-an-hour wobble DST
// transitions introduce.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func mostActiveWeekday(totals map[time.Weekday]int) time.Weekday {
	best := time.Sunday
	bestCount := -1
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		if totals[weekday] > bestCount {
			best = weekday
			bestCount = totals[weekday]
		}
	}
	return best
}
