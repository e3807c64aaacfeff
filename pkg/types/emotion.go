// Package types provides core data structures and type definitions
// for the MindMate Insights server, including emotion entries and
// the canonical emotion label set.
package types

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Emotion represents one of the canonical emotion labels tracked by the system
type Emotion string

const (
	// EmotionJoy represents happiness, excitement, or delight
	EmotionJoy Emotion = "joy"
	// EmotionSadness represents sadness, grief, or disappointment
	EmotionSadness Emotion = "sadness"
	// EmotionAnger represents anger, frustration, or disgust
	EmotionAnger Emotion = "anger"
	// EmotionFear represents fear, anxiety, or worry
	EmotionFear Emotion = "fear"
	// EmotionLove represents love, affection, or gratitude
	EmotionLove Emotion = "love"
	// EmotionSurprise represents surprise or astonishment
	EmotionSurprise Emotion = "surprise"
	// EmotionNeutral represents a calm or unclassified state
	EmotionNeutral Emotion = "neutral"
)

// PriorityOrder is the fixed tie-break order used whenever two emotions
// have equal counts in an aggregation. Earlier entries win ties.
var PriorityOrder = []Emotion{
	EmotionJoy,
	EmotionSadness,
	EmotionAnger,
	EmotionFear,
	EmotionLove,
	EmotionSurprise,
	EmotionNeutral,
}

// Valid returns true if the emotion is one of the canonical labels
func (e Emotion) Valid() bool {
	switch e {
	case EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear, EmotionLove, EmotionSurprise, EmotionNeutral:
		return true
	}
	return false
}

// PriorityRank returns the position of the emotion in PriorityOrder.
// Unknown emotions rank last.
func (e Emotion) PriorityRank() int {
	for i, candidate := range PriorityOrder {
		if candidate == e {
			return i
		}
	}
	return len(PriorityOrder)
}

// labelMapping maps classifier output labels onto the canonical set.
// Labels come from external emotion-classification models whose
// vocabularies are broader than the seven we track.
var labelMapping = map[string]Emotion{
	"joy":        EmotionJoy,
	"happy":      EmotionJoy,
	"happiness":  EmotionJoy,
	"excitement": EmotionJoy,
	"delight":    EmotionJoy,
	"pleasure":   EmotionJoy,
	"cheerful":   EmotionJoy,
	"elated":     EmotionJoy,

	"sadness":        EmotionSadness,
	"sad":            EmotionSadness,
	"unhappy":        EmotionSadness,
	"depressed":      EmotionSadness,
	"grief":          EmotionSadness,
	"sorrow":         EmotionSadness,
	"disappointment": EmotionSadness,
	"remorse":        EmotionSadness,

	"anger":      EmotionAnger,
	"angry":      EmotionAnger,
	"furious":    EmotionAnger,
	"mad":        EmotionAnger,
	"annoyance":  EmotionAnger,
	"irritated":  EmotionAnger,
	"frustrated": EmotionAnger,
	"disgust":    EmotionAnger,

	"fear":       EmotionFear,
	"afraid":     EmotionFear,
	"scared":     EmotionFear,
	"frightened": EmotionFear,
	"anxious":    EmotionFear,
	"worried":    EmotionFear,
	"nervous":    EmotionFear,
	"terrified":  EmotionFear,

	"surprise":   EmotionSurprise,
	"surprised":  EmotionSurprise,
	"amazed":     EmotionSurprise,
	"astonished": EmotionSurprise,
	"shocked":    EmotionSurprise,

	"love":       EmotionLove,
	"affection":  EmotionLove,
	"caring":     EmotionLove,
	"admiration": EmotionLove,
	"gratitude":  EmotionLove,

	"neutral":  EmotionNeutral,
	"calm":     EmotionNeutral,
	"peaceful": EmotionNeutral,
}

// MapLabel converts an arbitrary classifier label to a canonical emotion.
// Unrecognized labels map to neutral.
func MapLabel(label string) Emotion {
	if emotion, ok := ParseEmotion(label); ok {
		return emotion
	}
	return EmotionNeutral
}

// ParseEmotion resolves a label to a canonical emotion, accepting both
// canonical names and known classifier aliases. Unlike MapLabel it reports
// failure instead of defaulting, so callers can reject unknown input.
func ParseEmotion(label string) (Emotion, bool) {
	emotion, ok := labelMapping[strings.ToLower(strings.TrimSpace(label))]
	return emotion, ok
}

// EmotionEntry represents a single labeled emotion observation.
// Entries are immutable once created.
type EmotionEntry struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Emotion   Emotion   `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// RawEntry is an untrusted entry-like record before normalization.
// Timestamp may be an RFC 3339 string or an integer epoch-millisecond
// value; anything else is rejected during normalization.
type RawEntry struct {
	Emotion   string `json:"emotion"`
	Timestamp any    `json:"timestamp"`
	Note      string `json:"note,omitempty"`
}

// NewEmotionEntry creates a validated emotion entry with a fresh ID
func NewEmotionEntry(subjectID string, emotion Emotion, timestamp time.Time, note string) (*EmotionEntry, error) {
	entry := &EmotionEntry{
		ID:        uuid.New().String(),
		SubjectID: subjectID,
		Emotion:   emotion,
		Timestamp: timestamp,
		Note:      note,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate checks that the entry conforms to the data model
func (e *EmotionEntry) Validate() error {
	if e.ID == "" {
		return errors.New("entry ID is required")
	}
	if e.SubjectID == "" {
		return errors.New("subject ID is required")
	}
	if !e.Emotion.Valid() {
		return errors.New("invalid emotion: " + string(e.Emotion))
	}
	if e.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}

// Raw converts the entry to its untrusted wire form. Timestamps are
// carried as epoch milliseconds.
func (e *EmotionEntry) Raw() RawEntry {
	return RawEntry{
		Emotion:   string(e.Emotion),
		Timestamp: e.Timestamp.UnixMilli(),
		Note:      e.Note,
	}
}
