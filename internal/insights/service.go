// Package insights wires entry storage to the analysis pipeline and
// caches computed results per stream fingerprint.
package insights

import (
	"context"
	"fmt"
	"time"

	"mindmate-insights/internal/analysis"
	"mindmate-insights/internal/cache"
	"mindmate-insights/internal/config"
	"mindmate-insights/internal/logging"
	"mindmate-insights/internal/report"
	"mindmate-insights/internal/storage"
	"mindmate-insights/pkg/types"
)

// Service runs the analysis pipeline over a subject's stored entries
type Service struct {
	store  storage.EntryStore
	cache  *cache.ReportCache
	cfg    config.AnalysisConfig
	logger logging.Logger
	// now is swappable for tests
	now func() time.Time
}

// NewService creates an insights service. The cache may be nil.
func NewService(store storage.EntryStore, reportCache *cache.ReportCache, cfg config.AnalysisConfig, logger logging.Logger) *Service {
	return &Service{
		store:  store,
		cache:  reportCache,
		cfg:    cfg,
		logger: logger.WithComponent("insights"),
		now:    time.Now,
	}
}

// PatternResult is the response payload for pattern analysis
type PatternResult struct {
	SubjectID string                   `json:"subject_id"`
	Meta      analysis.StreamMeta      `json:"meta"`
	Patterns  []analysis.ScoredPattern `json:"patterns"`
}

// DailyResult is the response payload for daily aggregation
type DailyResult struct {
	SubjectID string               `json:"subject_id"`
	Meta      analysis.StreamMeta  `json:"meta"`
	Report    analysis.DailyReport `json:"report"`
}

// TimeOfDayResult is the response payload for time-of-day aggregation
type TimeOfDayResult struct {
	SubjectID string                                     `json:"subject_id"`
	Meta      analysis.StreamMeta                        `json:"meta"`
	Periods   map[analysis.Period]analysis.PeriodSummary `json:"periods"`
}

// TransitionResult is the response payload for transition analysis
type TransitionResult struct {
	SubjectID string                    `json:"subject_id"`
	Meta      analysis.StreamMeta       `json:"meta"`
	Report    analysis.TransitionReport `json:"report"`
}

func (s *Service) loadStream(ctx context.Context, subjectID string) ([]types.EmotionEntry, *analysis.NormalizedStream, error) {
	entries, err := s.store.List(ctx, &storage.EntryQuery{SubjectID: subjectID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load entries: %w", err)
	}

	raw := make([]types.RawEntry, len(entries))
	for i := range entries {
		raw[i] = entries[i].Raw()
	}

	stream, err := analysis.NormalizeWithCap(raw, s.cfg.EntryCap)
	if err != nil {
		return nil, nil, err
	}
	return entries, stream, nil
}

// Patterns mines and ranks recurring emotion sequences for a subject
func (s *Service) Patterns(ctx context.Context, subjectID string) (*PatternResult, error) {
	entries, stream, err := s.loadStream(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	key := cache.StreamKey("patterns", subjectID, entries)
	var cached PatternResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	mined, err := analysis.MinePatterns(stream, analysis.MinerConfig{
		MinLength: s.cfg.MinLength,
		MaxLength: s.cfg.MaxLength,
		ScanCap:   s.cfg.ScanCap,
	})
	if err != nil {
		return nil, err
	}

	ranked := analysis.RankPatterns(analysis.ScorePatterns(mined), analysis.ScoringConfig{
		MinSignificance: s.cfg.MinSignificance,
	})

	result := &PatternResult{SubjectID: subjectID, Meta: stream.Meta, Patterns: ranked}
	s.cache.Set(ctx, key, result)
	return result, nil
}

// Transitions analyzes emotion shifts for a subject, optionally focused
// on a single emotion
func (s *Service) Transitions(ctx context.Context, subjectID string, focus *types.Emotion) (*TransitionResult, error) {
	entries, stream, err := s.loadStream(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	kind := "transitions"
	if focus != nil {
		kind = "transitions:" + string(*focus)
	}
	key := cache.StreamKey(kind, subjectID, entries)
	var cached TransitionResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	rep, err := analysis.AnalyzeTransitions(stream, focus)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{SubjectID: subjectID, Meta: stream.Meta, Report: *rep}
	s.cache.Set(ctx, key, result)
	return result, nil
}

// Daily buckets entries by calendar day over the configured window
func (s *Service) Daily(ctx context.Context, subjectID string) (*DailyResult, error) {
	_, stream, err := s.loadStream(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	// The anchor moves with the clock, so day buckets are not cached
	rep, err := analysis.AggregateByDay(stream, s.cfg.WindowDays, s.now())
	if err != nil {
		return nil, err
	}

	return &DailyResult{SubjectID: subjectID, Meta: stream.Meta, Report: *rep}, nil
}

// TimeOfDay summarizes entries by period of day
func (s *Service) TimeOfDay(ctx context.Context, subjectID string) (*TimeOfDayResult, error) {
	entries, stream, err := s.loadStream(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	key := cache.StreamKey("timeofday", subjectID, entries)
	var cached TimeOfDayResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	periods, err := analysis.AggregateByTimeOfDay(stream)
	if err != nil {
		return nil, err
	}

	result := &TimeOfDayResult{
		SubjectID: subjectID,
		Meta:      stream.Meta,
		Periods:   periods,
	}
	s.cache.Set(ctx, key, result)
	return result, nil
}

// Report assembles the full markdown insight report for a subject.
// Analyses that fail for lack of data are simply omitted.
func (s *Service) Report(ctx context.Context, subjectID string) (*report.Builder, error) {
	patterns, err := s.Patterns(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	builder := &report.Builder{
		SubjectID:   subjectID,
		GeneratedAt: s.now(),
		Patterns:    patterns.Patterns,
	}

	if tr, err := s.Transitions(ctx, subjectID, nil); err == nil {
		builder.Transitions = &tr.Report
	}
	if daily, err := s.Daily(ctx, subjectID); err == nil {
		builder.Daily = &daily.Report
	}

	return builder, nil
}
