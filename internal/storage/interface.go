// Package storage provides persistence for emotion journal entries with
// SQLite, PostgreSQL, and in-memory backends behind a common interface.
package storage

import (
	"context"
	"errors"
	"time"

	"mindmate-insights/pkg/types"
)

// ErrNotFound is returned when a requested entry does not exist
var ErrNotFound = errors.New("entry not found")

// EntryQuery narrows entry listings
type EntryQuery struct {
	SubjectID string
	After     *time.Time
	Before    *time.Time
	// Limit bounds the result; zero means no limit. Results are always
	// ordered by timestamp ascending, ties by insertion order.
	Limit int
}

// EntryStore persists emotion journal entries
type EntryStore interface {
	// Initialize prepares the backend (schema creation, connectivity check)
	Initialize(ctx context.Context) error

	// Store persists a validated entry
	Store(ctx context.Context, entry *types.EmotionEntry) error

	// Get retrieves an entry by ID, returning ErrNotFound when absent
	Get(ctx context.Context, id string) (*types.EmotionEntry, error)

	// List returns entries matching the query in chronological order
	List(ctx context.Context, query *EntryQuery) ([]types.EmotionEntry, error)

	// Delete removes an entry by ID, returning ErrNotFound when absent
	Delete(ctx context.Context, id string) error

	// Count returns the number of entries for a subject
	Count(ctx context.Context, subjectID string) (int, error)

	// Close releases backend resources
	Close() error
}
