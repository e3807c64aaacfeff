package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"mindmate-insights/pkg/types"
)

const (
	// DefaultMinLength is the shortest n-gram mined
	DefaultMinLength = 2
	// DefaultMaxLength is the longest n-gram mined
	DefaultMaxLength = 4
	// MaxSupportedLength caps pattern length across the whole package;
	// the significance formula normalizes against it.
	MaxSupportedLength = 4
	// DefaultScanCap bounds how many recent entries each mining pass
	// scans. A performance bound, not a correctness one: identical input
	// always produces identical output.
	DefaultScanCap = 50
)

// ConfigurationError reports caller-supplied mining or scoring parameters
// outside the supported range. Validated eagerly, before any scan work.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}

// MinerConfig controls pattern mining bounds
type MinerConfig struct {
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`
	ScanCap   int `json:"scan_cap"`
}

// DefaultMinerConfig returns the standard mining bounds
func DefaultMinerConfig() MinerConfig {
	return MinerConfig{
		MinLength: DefaultMinLength,
		MaxLength: DefaultMaxLength,
		ScanCap:   DefaultScanCap,
	}
}

// Validate rejects bounds outside the supported range
func (c MinerConfig) Validate() error {
	if c.MinLength < 2 {
		return &ConfigurationError{Field: "min_length", Reason: "must be at least 2"}
	}
	if c.MaxLength > MaxSupportedLength {
		return &ConfigurationError{Field: "max_length", Reason: fmt.Sprintf("must be at most %d", MaxSupportedLength)}
	}
	if c.MinLength > c.MaxLength {
		return &ConfigurationError{Field: "min_length", Reason: "must not exceed max_length"}
	}
	if c.ScanCap < 2 {
		return &ConfigurationError{Field: "scan_cap", Reason: "must be at least 2"}
	}
	return nil
}

// Occurrence records one place in the stream where a pattern appears
type Occurrence struct {
	// StartIndex is the position of the first step within the normalized
	// stream the pattern was mined from.
	StartIndex int         `json:"start_index"`
	Timestamps []time.Time `json:"timestamps"`
}

// Start returns the timestamp of the occurrence's first step
func (o *Occurrence) Start() time.Time {
	return o.Timestamps[0]
}

// IntervalStats summarizes the gaps between consecutive occurrence starts.
// All zero for patterns with fewer than two occurrences; that is a
// documented convention, not an error.
type IntervalStats struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	Avg time.Duration `json:"avg"`
}

// Pattern is a recurring contiguous emotion subsequence
type Pattern struct {
	Sequence    []types.Emotion `json:"sequence"`
	Occurrences []Occurrence    `json:"occurrences"`
	Intervals   IntervalStats   `json:"interval_stats"`
}

// Key returns the order-sensitive identity of the pattern's sequence
func (p *Pattern) Key() string {
	return sequenceKey(p.Sequence)
}

func sequenceKey(sequence []types.Emotion) string {
	parts := make([]string, len(sequence))
	for i, emotion := range sequence {
		parts[i] = string(emotion)
	}
	return strings.Join(parts, "→")
}

// minOccurrences is the survival threshold per pattern length: pairs must
// repeat to be interesting, longer chains are rare enough to keep at one.
func minOccurrences(length int) int {
	if length == 2 {
		return 2
	}
	return 1
}

// MinePatterns finds repeated emotion subsequences of the configured
// lengths over at most cfg.ScanCap most-recent entries of the stream.
// Output is unscored and unfiltered beyond the per-length occurrence
// minimum, sorted by (length, sequence) for determinism.
func MinePatterns(stream *NormalizedStream, cfg MinerConfig) ([]Pattern, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stream == nil || stream.Len() < MinAnalyzableEntries {
		count := 0
		if stream != nil {
			count = stream.Len()
		}
		return nil, &InsufficientDataError{ValidCount: count}
	}

	entries := stream.Entries
	offset := 0
	if len(entries) > cfg.ScanCap {
		offset = len(entries) - cfg.ScanCap
		entries = entries[offset:]
	}

	found := make(map[string]*Pattern)
	for length := cfg.MinLength; length <= cfg.MaxLength; length++ {
		// Not enough room for the minimum occurrence count. Occurrences
		// may overlap, so k windows of size L need only L+k-1 entries.
		if len(entries) < length+minOccurrences(length)-1 {
			continue
		}
		for i := 0; i+length <= len(entries); i++ {
			window := entries[i : i+length]
			sequence := make([]types.Emotion, length)
			timestamps := make([]time.Time, length)
			for j, entry := range window {
				sequence[j] = entry.Emotion
				timestamps[j] = entry.Timestamp
			}

			key := sequenceKey(sequence)
			pattern, exists := found[key]
			if !exists {
				pattern = &Pattern{Sequence: sequence}
				found[key] = pattern
			}
			pattern.Occurrences = append(pattern.Occurrences, Occurrence{
				StartIndex: offset + i,
				Timestamps: timestamps,
			})
		}
	}

	patterns := make([]Pattern, 0, len(found))
	for _, pattern := range found {
		if len(pattern.Occurrences) < minOccurrences(len(pattern.Sequence)) {
			continue
		}
		pattern.Intervals = computeIntervals(pattern.Occurrences)
		patterns = append(patterns, *pattern)
	}

	// Map iteration order is random; sort so the result is reproducible
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i].Sequence) != len(patterns[j].Sequence) {
			return len(patterns[i].Sequence) < len(patterns[j].Sequence)
		}
		return patterns[i].Key() < patterns[j].Key()
	})

	return patterns, nil
}

// computeIntervals derives gap statistics between consecutive occurrence
// start times. Occurrences arrive in scan order, which is chronological.
func computeIntervals(occurrences []Occurrence) IntervalStats {
	if len(occurrences) < 2 {
		return IntervalStats{}
	}

	var stats IntervalStats
	var total time.Duration
	for i := 1; i < len(occurrences); i++ {
		gap := occurrences[i].Start().Sub(occurrences[i-1].Start())
		if gap < 0 {
			panic("analysis: negative interval between pattern occurrences")
		}
		if i == 1 || gap < stats.Min {
			stats.Min = gap
		}
		if gap > stats.Max {
			stats.Max = gap
		}
		total += gap
	}
	stats.Avg = total / time.Duration(len(occurrences)-1)
	return stats
}
