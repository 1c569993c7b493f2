package outbox

import (
	"context"
	"fmt"
	"time"
)

// MarkSending claims an item for delivery. It returns false when the item
// was not pending or failed, for example because another pass claimed it.
func (s *Store) MarkSending(ctx context.Context, exportID string, now time.Time) (bool, error) {
	stamp := formatTime(now)
	res, err := s.execWithRetry(ctx,
		`UPDATE outbox_items SET status = ?, sending_since = ?, last_attempt = ?
         WHERE export_id = ? AND status IN (?, ?)`,
		StatusSending, stamp, stamp, exportID, StatusPending, StatusFailed,
	)
	if err != nil {
		return false, fmt.Errorf("mark sending: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark sending rows: %w", err)
	}
	return affected == 1, nil
}

// MarkSent records a successful delivery and clears the last error.
func (s *Store) MarkSent(ctx context.Context, exportID string, now time.Time) error {
	return s.update(ctx, "mark sent",
		`UPDATE outbox_items SET status = ?, sending_since = NULL, next_attempt = NULL, error_message = NULL, last_attempt = ?
         WHERE export_id = ?`,
		StatusSent, formatTime(now), exportID,
	)
}

// MarkFailed records a failed attempt with the new retry count and the
// earliest time of the next attempt (nil for none).
func (s *Store) MarkFailed(ctx context.Context, exportID string, retries int, nextAttempt *time.Time, message string) error {
	return s.update(ctx, "mark failed",
		`UPDATE outbox_items SET status = ?, retries = ?, next_attempt = ?, error_message = ?, sending_since = NULL
         WHERE export_id = ?`,
		StatusFailed, retries, nullableTime(nextAttempt), nullableString(message), exportID,
	)
}

// RetryFailed moves failed items back to pending with a fresh retry budget.
// Without ids every failed item is retried. It returns the number reset.
func (s *Store) RetryFailed(ctx context.Context, exportIDs ...string) (int64, error) {
	query := `UPDATE outbox_items SET status = ?, retries = 0, next_attempt = NULL, error_message = NULL
              WHERE status = ?`
	args := []any{StatusPending, StatusFailed}
	if len(exportIDs) > 0 {
		query += ` AND export_id IN (` + makePlaceholders(len(exportIDs)) + `)`
		for _, id := range exportIDs {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes an item regardless of status.
func (s *Store) Remove(ctx context.Context, exportID string) error {
	return s.update(ctx, "remove", `DELETE FROM outbox_items WHERE export_id = ?`, exportID)
}

func (s *Store) update(ctx context.Context, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
