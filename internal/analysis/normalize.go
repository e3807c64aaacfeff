// Package analysis provides the pure pattern-mining and trend-analysis core
// over emotion streams: normalization, n-gram pattern mining, significance
// scoring, transition graphs, and temporal aggregation. Every function here
// is a pure computation over its input snapshot; nothing retains state
// between calls and everything is safe for concurrent use.
package analysis

import (
	"fmt"
	"sort"
	"time"

	"mindmate-insights/pkg/types"
)

const (
	// DefaultEntryCap bounds how many raw entries a single analysis
	// considers. When exceeded, only the most recent entries (by original
	// order) are kept and the drop is reported in the stream metadata.
	DefaultEntryCap = 200

	// MinAnalyzableEntries is the smallest stream worth analyzing
	MinAnalyzableEntries = 3
)

// InsufficientDataError signals that too few valid entries remain after
// normalization. It is a "nothing to analyze yet" condition, not a defect.
type InsufficientDataError struct {
	ValidCount int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d valid entries, need at least %d", e.ValidCount, MinAnalyzableEntries)
}

// StreamEntry is a single validated observation inside a normalized stream
type StreamEntry struct {
	Emotion   types.Emotion `json:"emotion"`
	Timestamp time.Time     `json:"timestamp"`
}

// StreamMeta reports what normalization did to the raw input
type StreamMeta struct {
	RawCount     int `json:"raw_count"`
	ValidCount   int `json:"valid_count"`
	InvalidCount int `json:"invalid_count"`
	// DroppedByCap counts raw entries discarded because the input exceeded
	// the entry cap, before validation.
	DroppedByCap int `json:"dropped_by_cap"`
}

// NormalizedStream is an ordered emotion sequence, non-decreasing by
// timestamp, with all invalid entries removed. It is derived fresh from raw
// input on every call and never mutated afterwards.
type NormalizedStream struct {
	Entries []StreamEntry `json:"entries"`
	Meta    StreamMeta    `json:"meta"`
}

// Len returns the number of entries in the stream
func (s *NormalizedStream) Len() int {
	return len(s.Entries)
}

// Normalize converts untrusted entry-like records into a NormalizedStream.
// Entries with a missing or unknown emotion, or a timestamp that is neither
// an RFC 3339 string nor an epoch-millisecond number, are dropped and
// counted. Input beyond the cap is truncated to the most recent entries in
// original order. Returns InsufficientDataError when fewer than
// MinAnalyzableEntries valid entries remain.
func Normalize(raw []types.RawEntry) (*NormalizedStream, error) {
	return NormalizeWithCap(raw, DefaultEntryCap)
}

// NormalizeWithCap is Normalize with an explicit entry cap
func NormalizeWithCap(raw []types.RawEntry, entryCap int) (*NormalizedStream, error) {
	if entryCap < MinAnalyzableEntries {
		return nil, &ConfigurationError{Field: "entry_cap", Reason: fmt.Sprintf("must be at least %d", MinAnalyzableEntries)}
	}

	meta := StreamMeta{RawCount: len(raw)}

	considered := raw
	if len(considered) > entryCap {
		meta.DroppedByCap = len(considered) - entryCap
		considered = considered[len(considered)-entryCap:]
	}

	entries := make([]StreamEntry, 0, len(considered))
	for i := range considered {
		entry, ok := parseRawEntry(&considered[i])
		if !ok {
			meta.InvalidCount++
			continue
		}
		entries = append(entries, entry)
	}
	meta.ValidCount = len(entries)

	if len(entries) < MinAnalyzableEntries {
		return nil, &InsufficientDataError{ValidCount: len(entries)}
	}

	// Stable sort keeps the original relative order of equal timestamps
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return &NormalizedStream{Entries: entries, Meta: meta}, nil
}

func parseRawEntry(raw *types.RawEntry) (StreamEntry, bool) {
	if raw.Emotion == "" {
		return StreamEntry{}, false
	}
	emotion, ok := types.ParseEmotion(raw.Emotion)
	if !ok {
		return StreamEntry{}, false
	}

	ts, ok := parseTimestamp(raw.Timestamp)
	if !ok {
		return StreamEntry{}, false
	}

	return StreamEntry{Emotion: emotion, Timestamp: ts}, true
}

// parseTimestamp accepts already-resolved time values, RFC 3339 strings, and
// epoch-millisecond numbers. encoding/json decodes JSON numbers as float64,
// so that case covers API input; the integer cases cover in-process callers.
func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts, true
		}
		return time.Time{}, false
	case float64:
		if v <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v)), true
	case int64:
		if v <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(v), true
	case int:
		if v <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v)), true
	default:
		return time.Time{}, false
	}
}
