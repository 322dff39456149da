package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession inserts a fresh session in the uploading state and returns
// it. The session expires ttl from now unless accessed again.
func (s *Store) CreateSession(ctx context.Context, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO sessions (id, status, total_movies, enriched_count, created_at, last_accessed, expires_at)
         VALUES (?, ?, 0, 0, ?, ?, ?)`,
		id,
		StatusUploading,
		timestamp,
		timestamp,
		now.Add(ttl).Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. A missing session yields
// (nil, nil).
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// SessionsByStatus returns sessions matching a status ordered by creation time.
func (s *Store) SessionsByStatus(ctx context.Context, status Status) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY created_at`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// SetStatus transitions a session and clears any stale error message.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE sessions SET status = ?, error_message = NULL, last_accessed = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// FailSession marks the session failed with the given message.
func (s *Store) FailSession(ctx context.Context, id, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE sessions SET status = ?, error_message = ?, last_accessed = ? WHERE id = ?`,
		StatusFailed,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("fail session: %w", err)
	}
	return nil
}

// IncrementEnriched adds delta to the session's enriched counter in a single
// UPDATE, so concurrent workers never lose increments.
func (s *Store) IncrementEnriched(ctx context.Context, id string, delta int) error {
	if delta == 0 {
		return nil
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE sessions SET enriched_count = enriched_count + ? WHERE id = ?`,
		delta,
		id,
	); err != nil {
		return fmt.Errorf("increment enriched: %w", err)
	}
	return nil
}

// Touch refreshes last_accessed and pushes expiry ttl into the future.
func (s *Store) Touch(ctx context.Context, id string, ttl time.Duration) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE sessions SET last_accessed = ?, expires_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Add(ttl).Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry has passed, along with their
// movies, and reports how many sessions were removed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM sessions WHERE expires_at < ?`,
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

// DeleteSession removes a session and its movies.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CountsByStatus aggregates session counts per lifecycle state.
func (s *Store) CountsByStatus(ctx context.Context) (CountSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM sessions GROUP BY status`)
	if err != nil {
		return CountSummary{}, fmt.Errorf("count sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summary CountSummary
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return CountSummary{}, fmt.Errorf("scan count: %w", err)
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusUploading, StatusProcessing:
			summary.Uploading += count
		case StatusEnriching:
			summary.Enriching += count
		case StatusCompleted:
			summary.Completed += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}
