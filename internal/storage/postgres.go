package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"mindmate-insights/pkg/types"
)

// PostgresStore is the shared-database entry store for multi-instance
// deployments
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates an entry store backed by PostgreSQL
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &PostgresStore{db: db}, nil
}

// Initialize verifies connectivity and creates the schema if needed
func (s *PostgresStore) Initialize(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach postgres: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS emotion_entries (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		emotion TEXT NOT NULL,
		timestamp_ms BIGINT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at_ms BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_subject_time
		ON emotion_entries (subject_id, timestamp_ms);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Store persists a validated entry
func (s *PostgresStore) Store(ctx context.Context, entry *types.EmotionEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO emotion_entries (id, subject_id, emotion, timestamp_ms, note, created_at_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.SubjectID, string(entry.Emotion), entry.Timestamp.UnixMilli(), entry.Note, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID
func (s *PostgresStore) Get(ctx context.Context, id string) (*types.EmotionEntry, error) {
	query := `SELECT id, subject_id, emotion, timestamp_ms, note FROM emotion_entries WHERE id = $1`

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
func (s *PostgresStore) List(ctx context.Context, query *EntryQuery) ([]types.EmotionEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, subject_id, emotion, timestamp_ms, note FROM emotion_entries WHERE 1=1`)
	args := make([]interface{}, 0, 4)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.SubjectID != "" {
		sb.WriteString(` AND subject_id = ` + arg(query.SubjectID))
	}
	if query.After != nil {
		sb.WriteString(` AND timestamp_ms >= ` + arg(query.After.UnixMilli()))
	}
	if query.Before != nil {
		sb.WriteString(` AND timestamp_ms < ` + arg(query.Before.UnixMilli()))
	}
	sb.WriteString(` ORDER BY timestamp_ms ASC, created_at_ms ASC`)
	if query.Limit > 0 {
		sb.WriteString(` LIMIT ` + arg(query.Limit))
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
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM emotion_entries WHERE id = $1`, id)
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
func (s *PostgresStore) Count(ctx context.Context, subjectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emotion_entries WHERE subject_id = $1`, subjectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
