package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmate-insights/pkg/types"
)

// storeFactories lets the same suite run against every backend that can be
// exercised without external services
func storeFactories(t *testing.T) map[string]func(t *testing.T) EntryStore {
	return map[string]func(t *testing.T) EntryStore{
		"memory": func(_ *testing.T) EntryStore {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) EntryStore {
			store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			return store
		},
	}
}

func mustEntry(t *testing.T, subjectID string, emotion types.Emotion, ts time.Time) *types.EmotionEntry {
	t.Helper()
	entry, err := types.NewEmotionEntry(subjectID, emotion, ts, "")
	require.NoError(t, err)
	return entry
}

func TestEntryStoreCRUD(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			defer func() { _ = store.Close() }()
			require.NoError(t, store.Initialize(ctx))

			entry := mustEntry(t, "subject-1", types.EmotionJoy, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
			require.NoError(t, store.Store(ctx, entry))

			got, err := store.Get(ctx, entry.ID)
			require.NoError(t, err)
			assert.Equal(t, entry.ID, got.ID)
			assert.Equal(t, types.EmotionJoy, got.Emotion)
			assert.Equal(t, entry.Timestamp.UnixMilli(), got.Timestamp.UnixMilli())

			count, err := store.Count(ctx, "subject-1")
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			require.NoError(t, store.Delete(ctx, entry.ID))
			_, err = store.Get(ctx, entry.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete(ctx, entry.ID), ErrNotFound)
		})
	}
}

func TestEntryStoreListOrderingAndFilters(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			defer func() { _ = store.Close() }()
			require.NoError(t, store.Initialize(ctx))

			base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
			// Stored out of order on purpose
			second := mustEntry(t, "subject-1", types.EmotionSadness, base.Add(time.Hour))
			first := mustEntry(t, "subject-1", types.EmotionJoy, base)
			third := mustEntry(t, "subject-1", types.EmotionFear, base.Add(2*time.Hour))
			other := mustEntry(t, "subject-2", types.EmotionAnger, base)

			for _, entry := range []*types.EmotionEntry{second, first, third, other} {
				require.NoError(t, store.Store(ctx, entry))
			}

			listed, err := store.List(ctx, &EntryQuery{SubjectID: "subject-1"})
			require.NoError(t, err)
			require.Len(t, listed, 3)
			assert.Equal(t, first.ID, listed[0].ID)
			assert.Equal(t, second.ID, listed[1].ID)
			assert.Equal(t, third.ID, listed[2].ID)

			after := base.Add(30 * time.Minute)
			listed, err = store.List(ctx, &EntryQuery{SubjectID: "subject-1", After: &after})
			require.NoError(t, err)
			require.Len(t, listed, 2)
			assert.Equal(t, second.ID, listed[0].ID)

			listed, err = store.List(ctx, &EntryQuery{SubjectID: "subject-1", Limit: 1})
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, first.ID, listed[0].ID)
		})
	}
}

func TestStoreRejectsInvalidEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	invalid := &types.EmotionEntry{ID: "x", SubjectID: "s", Emotion: "bogus", Timestamp: time.Now()}
	assert.Error(t, store.Store(ctx, invalid))
}
