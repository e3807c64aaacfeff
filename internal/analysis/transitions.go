package analysis

import (
	"sort"
	"time"

	"mindmate-insights/pkg/types"
)

// Period is a coarse time-of-day bucket
type Period string

const (
	// PeriodMorning covers 06:00-11:59
	PeriodMorning Period = "morning"
	// PeriodAfternoon covers 12:00-17:59
	PeriodAfternoon Period = "afternoon"
	// PeriodEvening covers 18:00-23:59
	PeriodEvening Period = "evening"
	// PeriodNight covers 00:00-05:59
	PeriodNight Period = "night"
)

// PeriodOf maps an hour of day to its period
func PeriodOf(hour int) Period {
	switch {
	case hour >= 6 && hour <= 11:
		return PeriodMorning
	case hour >= 12 && hour <= 17:
		return PeriodAfternoon
	case hour >= 18:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// Transition is an observed step between two consecutive emotions
type Transition struct {
	From        types.Emotion `json:"from"`
	To          types.Emotion `json:"to"`
	Count       int           `json:"count"`
	AvgDuration time.Duration `json:"avg_duration"`
}

func (t *Transition) key() string {
	return string(t.From) + "→" + string(t.To)
}

// Touches reports whether the transition involves the given emotion
func (t *Transition) Touches(e types.Emotion) bool {
	return t.From == e || t.To == e
}

// Cycle is a two-hop round trip (A→B→A) observed in the stream
type Cycle struct {
	Path  [3]types.Emotion `json:"path"`
	Count int              `json:"count"`
}

func (c *Cycle) key() string {
	return string(c.Path[0]) + "→" + string(c.Path[1]) + "→" + string(c.Path[2])
}

// Touches reports whether the cycle involves the given emotion
func (c *Cycle) Touches(e types.Emotion) bool {
	return c.Path[0] == e || c.Path[1] == e
}

// PeriodSummary reports the dominant emotion for one time-of-day bucket
type PeriodSummary struct {
	Counts     map[types.Emotion]int `json:"counts"`
	Dominant   types.Emotion         `json:"dominant"`
	Percentage float64               `json:"percentage"`
	Total      int                   `json:"total"`
}

// TransitionReport holds the full transition-graph statistics for a stream
type TransitionReport struct {
	// Transitions lists every distinct (from, to) pair, sorted by key
	Transitions []Transition `json:"transitions"`
	// MostFrequent holds the top transitions by count, at most
	// topTransitionCount of them, ties broken by lexical key order
	MostFrequent []Transition `json:"most_frequent"`
	// Variety maps each emotion to its fan-out: how many distinct
	// emotions were ever reached directly from it
	Variety map[types.Emotion]int `json:"variety"`
	// Cycles holds the top A→B→A round trips by count
	Cycles []Cycle `json:"cycles"`
	// TimeOfDay summarizes dominant emotions per period
	TimeOfDay map[Period]PeriodSummary `json:"time_of_day"`
	// FocusEmotion is set when the report was filtered to one emotion
	FocusEmotion *types.Emotion `json:"focus_emotion,omitempty"`
}

const (
	topTransitionCount = 5
	topCycleCount      = 3
)

// AnalyzeTransitions builds pairwise transition statistics over the stream.
// When focus is non-nil, the reported transitions, cycles, and variety are
// filtered to structures touching that emotion. Filtering happens after
// aggregation, so counts always reflect the full stream.
func AnalyzeTransitions(stream *NormalizedStream, focus *types.Emotion) (*TransitionReport, error) {
	if stream == nil || stream.Len() < 2 {
		count := 0
		if stream != nil {
			count = stream.Len()
		}
		return nil, &InsufficientDataError{ValidCount: count}
	}

	type pairAgg struct {
		count int
		total time.Duration
	}
	pairs := make(map[string]*pairAgg)
	pairMeta := make(map[string][2]types.Emotion)

	steps := make([]emotionStep, 0, stream.Len()-1)

	for i := 1; i < stream.Len(); i++ {
		from := stream.Entries[i-1].Emotion
		to := stream.Entries[i].Emotion
		delta := stream.Entries[i].Timestamp.Sub(stream.Entries[i-1].Timestamp)
		if delta < 0 {
			panic("analysis: negative time delta in normalized stream")
		}

		key := string(from) + "→" + string(to)
		agg, exists := pairs[key]
		if !exists {
			agg = &pairAgg{}
			pairs[key] = agg
			pairMeta[key] = [2]types.Emotion{from, to}
		}
		agg.count++
		agg.total += delta

		steps = append(steps, emotionStep{from: from, to: to})
	}

	transitions := make([]Transition, 0, len(pairs))
	for key, agg := range pairs {
		meta := pairMeta[key]
		transitions = append(transitions, Transition{
			From:        meta[0],
			To:          meta[1],
			Count:       agg.count,
			AvgDuration: agg.total / time.Duration(agg.count),
		})
	}
	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].key() < transitions[j].key()
	})

	report := &TransitionReport{
		Transitions:  transitions,
		MostFrequent: topTransitions(transitions, topTransitionCount),
		Variety:      fanOut(transitions),
		Cycles:       detectCycles(steps),
		TimeOfDay:    timeOfDaySummaries(stream),
		FocusEmotion: focus,
	}

	if focus != nil {
		report.applyFocus(*focus)
	}

	return report, nil
}

// topTransitions picks the n highest-count transitions. Input is already in
// lexical key order, so a stable sort by count keeps ties lexical.
func topTransitions(transitions []Transition, n int) []Transition {
	top := make([]Transition, len(transitions))
	copy(top, transitions)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

func fanOut(transitions []Transition) map[types.Emotion]int {
	targets := make(map[types.Emotion]map[types.Emotion]bool)
	for i := range transitions {
		if targets[transitions[i].From] == nil {
			targets[transitions[i].From] = make(map[types.Emotion]bool)
		}
		targets[transitions[i].From][transitions[i].To] = true
	}

	variety := make(map[types.Emotion]int, len(targets))
	for from, reached := range targets {
		variety[from] = len(reached)
	}
	return variety
}

// emotionStep is one hop in the raw transition sequence, pre-aggregation
type emotionStep struct {
	from, to types.Emotion
}

// detectCycles finds A→B→A round trips across consecutive transition pairs
// and keeps the most frequent ones
func detectCycles(steps []emotionStep) []Cycle {
	counts := make(map[string]*Cycle)
	for i := 0; i+1 < len(steps); i++ {
		if steps[i].from != steps[i+1].to {
			continue
		}
		cycle := Cycle{Path: [3]types.Emotion{steps[i].from, steps[i].to, steps[i+1].to}}
		key := cycle.key()
		if existing, ok := counts[key]; ok {
			existing.Count++
		} else {
			cycle.Count = 1
			counts[key] = &cycle
		}
	}

	cycles := make([]Cycle, 0, len(counts))
	for _, cycle := range counts {
		cycles = append(cycles, *cycle)
	}
	sort.Slice(cycles, func(i, j int) bool {
		if cycles[i].Count != cycles[j].Count {
			return cycles[i].Count > cycles[j].Count
		}
		return cycles[i].key() < cycles[j].key()
	})
	if len(cycles) > topCycleCount {
		cycles = cycles[:topCycleCount]
	}
	return cycles
}

func timeOfDaySummaries(stream *NormalizedStream) map[Period]PeriodSummary {
	counts := make(map[Period]map[types.Emotion]int)
	for i := range stream.Entries {
		period := PeriodOf(stream.Entries[i].Timestamp.Hour())
		if counts[period] == nil {
			counts[period] = make(map[types.Emotion]int)
		}
		counts[period][stream.Entries[i].Emotion]++
	}

	summaries := make(map[Period]PeriodSummary, len(counts))
	for period, emotionCounts := range counts {
		dominant, total := dominantEmotion(emotionCounts)
		summaries[period] = PeriodSummary{
			Counts:     emotionCounts,
			Dominant:   dominant,
			Percentage: float64(emotionCounts[dominant]) / float64(total) * 100,
			Total:      total,
		}
	}
	return summaries
}

// dominantEmotion picks the highest-count emotion, breaking ties by the
// fixed priority order. Returns the winner and the total count.
func dominantEmotion(counts map[types.Emotion]int) (types.Emotion, int) {
	best := types.EmotionNeutral
	bestCount := -1
	total := 0
	for _, emotion := range types.PriorityOrder {
		count := counts[emotion]
		total += count
		if count > bestCount {
			best = emotion
			bestCount = count
		}
	}
	return best, total
}

func (r *TransitionReport) applyFocus(focus types.Emotion) {
	filtered := r.Transitions[:0:0]
	for i := range r.Transitions {
		if r.Transitions[i].Touches(focus) {
			filtered = append(filtered, r.Transitions[i])
		}
	}
	r.Transitions = filtered

	frequent := r.MostFrequent[:0:0]
	for i := range r.MostFrequent {
		if r.MostFrequent[i].Touches(focus) {
			frequent = append(frequent, r.MostFrequent[i])
		}
	}
	r.MostFrequent = frequent

	cycles := r.Cycles[:0:0]
	for i := range r.Cycles {
		if r.Cycles[i].Touches(focus) {
			cycles = append(cycles, r.Cycles[i])
		}
	}
	r.Cycles = cycles

	variety := make(map[types.Emotion]int, 1)
	if count, ok := r.Variety[focus]; ok {
		variety[focus] = count
	}
	r.Variety = variety
}
