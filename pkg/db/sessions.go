package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"webtv-clipper/pkg/domain"
)

// ErrConflict is returned by Insert when another writer created a record
// with the same source link first. Callers treat it as "already exists",
// not as a failure.
var ErrConflict = errors.New("session record already exists")

const uniqueViolationCode = "23505"

// SessionStore persists session records in the sessions table. The source
// link is the primary key, so two near-simultaneous discovery cycles for
// the same link produce at most one row; the losing writer sees ErrConflict.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a store on top of a connected Postgres client.
func NewSessionStore(provider DBProvider) *SessionStore {
	return &SessionStore{db: provider.DB()}
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *SessionStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	source_link       TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	type              TEXT NOT NULL,
	date              DATE,
	duration_seconds  INTEGER NOT NULL,
	media_url         TEXT NOT NULL DEFAULT '',
	speaker_timeline  JSONB NOT NULL DEFAULT '[]',
	storage_namespace TEXT NOT NULL UNIQUE,
	status            TEXT NOT NULL DEFAULT 'pending',
	discovered_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS sessions_status_idx ON sessions (status);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure sessions schema: %w", err)
	}
	return nil
}

// Exists reports whether a record with the given source link is stored.
func (s *SessionStore) Exists(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE source_link = $1)`, link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session exists: %w", err)
	}
	return exists, nil
}

// Insert stores a new session record in a single transaction: either the
// record is fully present with all fields or not present at all. A unique
// violation on the source link maps to ErrConflict.
func (s *SessionStore) Insert(ctx context.Context, record *domain.SessionRecord) error {
	timeline, err := json.Marshal(record.Timeline)
	if err != nil {
		return fmt.Errorf("marshal speaker timeline: %w", err)
	}

	var date sql.NullTime
	if !record.Date.IsZero() {
		date = sql.NullTime{Time: record.Date, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (source_link, title, type, date, duration_seconds, media_url, speaker_timeline, storage_namespace, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.SourceLink, record.Title, record.Type, date, record.DurationSeconds,
		record.MediaURL, timeline, record.StorageNamespace, domain.StatusPending)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// FindUnprocessed returns every record still pending, oldest first.
func (s *SessionStore) FindUnprocessed(ctx context.Context) ([]domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_link, title, type, date, duration_seconds, media_url, speaker_timeline, storage_namespace, status, discovered_at
FROM sessions
WHERE status = $1
ORDER BY discovered_at`, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed sessions: %w", err)
	}
	defer rows.Close()

	var records []domain.SessionRecord
	for rows.Next() {
		var (
			record   domain.SessionRecord
			date     sql.NullTime
			timeline []byte
		)
		err := rows.Scan(&record.SourceLink, &record.Title, &record.Type, &date,
			&record.DurationSeconds, &record.MediaURL, &timeline,
			&record.StorageNamespace, &record.Status, &record.DiscoveredAt)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		if date.Valid {
			record.Date = date.Time
		}
		if err := json.Unmarshal(timeline, &record.Timeline); err != nil {
			return nil, fmt.Errorf("unmarshal speaker timeline for %s: %w", record.SourceLink, err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unprocessed sessions: %w", err)
	}
	return records, nil
}

// MarkProcessed flips a record to processed. Re-marking an already
// processed record is a no-op: the status never reverts and the original
// processed_at is kept.
func (s *SessionStore) MarkProcessed(ctx context.Context, link string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE sessions SET status = $1, processed_at = now()
WHERE source_link = $2 AND status <> $1`, domain.StatusProcessed, link)
	if err != nil {
		return fmt.Errorf("mark session processed: %w", err)
	}
	return nil
}
