package outbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ResetStuck returns items that have been sending since before cutoff to
// pending. It returns the number of items reset.
func (s *Store) ResetStuck(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE outbox_items SET status = ?, sending_since = NULL
         WHERE status = ? AND (sending_since IS NULL OR sending_since < ?)`,
		StatusPending, StatusSending, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck: %w", err)
	}
	return res.RowsAffected()
}

// PruneSent deletes sent items whose last attempt is older than cutoff.
func (s *Store) PruneSent(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM outbox_items WHERE status = ? AND last_attempt IS NOT NULL AND last_attempt < ?`,
		StatusSent, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune sent: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM outbox_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("outbox stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Status folds Stats into the user-facing summary.
func (s *Store) Status(ctx context.Context) (Summary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Pending: stats[StatusPending] + stats[StatusSending],
		Sent:    stats[StatusSent],
		Failed:  stats[StatusFailed],
	}, nil
}

// Count returns the number of items.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM outbox_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count exports: %w", err)
	}
	return count, nil
}

// CheckHealth returns diagnostic information about the outbox database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	ctx = ensureContext(ctx)
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("outbox database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat outbox database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("outbox database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping outbox database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	var tables int
	if err := s.db.QueryRowContext(connCtx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = 'outbox_items'",
	).Scan(&tables); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.TableExists = tables == 1
	if health.TableExists {
		count, err := s.Count(connCtx)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.TotalItems = count
	}
	return health, nil
}
