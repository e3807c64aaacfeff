package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"mindmate-insights/pkg/types"
)

// SQLiteStore is the default local-first entry store
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates an entry store backed by a SQLite file
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db, path: path}, nil
}

// Initialize creates the schema if needed
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS emotion_entries (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		emotion TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_subject_time
		ON emotion_entries (subject_id, timestamp_ms);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Store persists a validated entry
func (s *SQLiteStore) Store(ctx context.Context, entry *types.EmotionEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO emotion_entries (id, subject_id, emotion, timestamp_ms, note, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.SubjectID, string(entry.Emotion), entry.Timestamp.UnixMilli(), entry.Note, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID
func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.EmotionEntry, error) {
	query := `SELECT id, subject_id, emotion, timestamp_ms, note FROM emotion_entries WHERE id = ?`

	var entry types.EmotionEntry
	var emotion string
	var timestampMs int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(&entry.ID, &entry.SubjectID, &emotion, &timestampMs, &entry.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	entry.Emotion = types.Emotion(emotion)
	entry.Timestamp = time.UnixMilli(timestampMs)
	return &entry, nil
}

// List returns entries matching the query in chronological order
func (s *SQLiteStore) List(ctx context.Context, query *EntryQuery) ([]types.EmotionEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, subject_id, emotion, timestamp_ms, note FROM emotion_entries WHERE 1=1`)
	args := make([]interface{}, 0, 4)

	if query.SubjectID != "" {
		sb.WriteString(` AND subject_id = ?`)
		args = append(args, query.SubjectID)
	}
	if query.After != nil {
		sb.WriteString(` AND timestamp_ms >= ?`)
		args = append(args, query.After.UnixMilli())
	}
	if query.Before != nil {
		sb.WriteString(` AND timestamp_ms < ?`)
		args = append(args, query.Before.UnixMilli())
	}
	sb.WriteString(` ORDER BY timestamp_ms ASC, created_at_ms ASC`)
	if query.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []types.EmotionEntry
	for rows.Next() {
		var entry types.EmotionEntry
		var emotion string
		var timestampMs int64
		if err := rows.Scan(&entry.ID, &entry.SubjectID, &emotion, &timestampMs, &entry.Note); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Emotion = types.Emotion(emotion)
		entry.Timestamp = time.UnixMilli(timestampMs)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes an entry by ID
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM emotion_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of entries for a subject
func (s *SQLiteStore) Count(ctx context.Context, subjectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emotion_entries WHERE subject_id = ?`, subjectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
