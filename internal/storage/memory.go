package storage

import (
	"context"
	"sort"
	"sync"

	"mindmate-insights/pkg/types"
)

// MemoryStore is an in-memory entry store for tests and ephemeral use
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]types.EmotionEntry
	order   map[string]int // insertion order for stable tie-breaks
	next    int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]types.EmotionEntry),
		order:   make(map[string]int),
	}
}

// Initialize is a no-op for the in-memory backend
func (s *MemoryStore) Initialize(_ context.Context) error {
	return nil
}

// Store persists a validated entry
func (s *MemoryStore) Store(_ context.Context, entry *types.EmotionEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	s.order[entry.ID] = s.next
	s.next++
	return nil
}

// Get retrieves an entry by ID
func (s *MemoryStore) Get(_ context.Context, id string) (*types.EmotionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &entry, nil
}

// List returns entries matching the query in chronological order
func (s *MemoryStore) List(_ context.Context, query *EntryQuery) ([]types.EmotionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]types.EmotionEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if query.SubjectID != "" && entry.SubjectID != query.SubjectID {
			continue
		}
		if query.After != nil && entry.Timestamp.Before(*query.After) {
			continue
		}
		if query.Before != nil && !entry.Timestamp.Before(*query.Before) {
			continue
		}
		matched = append(matched, entry)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return s.order[matched[i].ID] < s.order[matched[j].ID]
	})

	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

// Delete removes an entry by ID
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; !exists {
		return ErrNotFound
	}
	delete(s.entries, id)
	delete(s.order, id)
	return nil
}

// Count returns the number of entries for a subject
func (s *MemoryStore) Count(_ context.Context, subjectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, entry := range s.entries {
		if entry.SubjectID == subjectID {
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory backend
func (s *MemoryStore) Close() error {
	return nil
}
