package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/alem-hub/achievement-hub/internal/domain/history"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/pkg/retry"
)

// HistoryRepository stores history entries in action_history.
type HistoryRepository struct {
	db      Querier
	retrier *retry.Retrier
}

// NewHistoryRepository creates a repository over db.
func NewHistoryRepository(db Querier) *HistoryRepository {
	return &HistoryRepository{db: db, retrier: retry.DatabaseRetrier()}
}

// WithRetrier replaces the retry policy.
func (r *HistoryRepository) WithRetrier(rt *retry.Retrier) *HistoryRepository {
	r.retrier = rt
	return r
}

const insertEntrySQL = `
INSERT INTO action_history (id, session_id, description, result, status, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Record implements history.Recorder. Constraint violations are not retried.
func (r *HistoryRepository) Record(ctx context.Context, entry history.Entry) error {
	return r.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, insertEntrySQL,
			entry.ID,
			entry.SessionID,
			entry.Description,
			entry.Result,
			string(entry.Status),
			entry.RecordedAt,
		)
		switch {
		case err == nil:
			return nil
		case IsUniqueViolation(err), IsCheckViolation(err), errors.Is(err, ErrConnectionClosed):
			return retry.Permanent(fmt.Errorf("insert history entry: %w", err))
		default:
			return retry.Retryable(fmt.Errorf("insert history entry: %w", err))
		}
	})
}

const listBySessionSQL = `
SELECT id, session_id, description, result, status, recorded_at
FROM action_history
WHERE session_id = $1
ORDER BY recorded_at, id`

// ListBySession returns a session's entries, oldest first.
func (r *HistoryRepository) ListBySession(ctx context.Context, sessionID string) ([]history.Entry, error) {
	rows, err := r.db.Query(ctx, listBySessionSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		var e history.Entry
		var status string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Description, &e.Result, &status, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Status = history.EntryStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const countByStatusSQL = `SELECT count(*) FROM action_history WHERE session_id = $1 AND status = $2`

// CountByStatus counts a session's entries with status.
func (r *HistoryRepository) CountByStatus(ctx context.Context, sessionID string, status history.EntryStatus) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, countByStatusSQL, sessionID, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

const latestBySessionSQL = `
SELECT id, session_id, description, result, status, recorded_at
FROM action_history
WHERE session_id = $1
ORDER BY recorded_at DESC, id DESC
LIMIT 1`

// ErrNoHistory is returned when a session has no persisted entries.
var ErrNoHistory = shared.NewDomainError("history", "Latest", shared.ErrNotFound, "no persisted history for session")

// Latest returns the most recently recorded entry of a session.
func (r *HistoryRepository) Latest(ctx context.Context, sessionID string) (history.Entry, error) {
	var e history.Entry
	var status string
	err := r.db.QueryRow(ctx, latestBySessionSQL, sessionID).
		Scan(&e.ID, &e.SessionID, &e.Description, &e.Result, &status, &e.RecordedAt)
	if err != nil {
		if IsNoRows(err) {
			return history.Entry{}, ErrNoHistory.Detail("session %s has no persisted history", sessionID)
		}
		return history.Entry{}, fmt.Errorf("latest history: %w", err)
	}
	e.Status = history.EntryStatus(status)
	return e, nil
}
