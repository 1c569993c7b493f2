package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"punchout/internal/logging"
)

// Enqueue stores a packet as a pending item. A known export id yields
// ErrDuplicate and leaves the existing row untouched.
func (s *Store) Enqueue(ctx context.Context, exportID, dayID string, packet []byte) (*Item, error) {
	exportID = strings.TrimSpace(exportID)
	if exportID == "" {
		return nil, errors.New("enqueue: export id is required")
	}
	if !json.Valid(packet) {
		return nil, errors.New("enqueue: packet is not valid JSON")
	}
	now := s.now()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO outbox_items (export_id, day_id, status, retries, created_at, packet_json)
         VALUES (?, ?, ?, 0, ?, ?)
         ON CONFLICT(export_id) DO NOTHING`,
		exportID, dayID, StatusPending, formatTime(now), string(packet),
	)
	if err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%s: %w", exportID, ErrDuplicate)
	}

	if s.warnSize > 0 {
		if count, err := s.Count(ctx); err == nil && count > s.warnSize {
			logging.WarnWithContext(s.logger, "export queue is growing", "outbox_backlog",
				logging.Int("count", count),
				logging.Int("warn_queue_size", s.warnSize),
				logging.String(logging.FieldErrorHint, "check export endpoint reachability"),
				logging.String(logging.FieldImpact, "locked days are not reaching the remote system"),
			)
		}
	}
	s.logger.Debug("export queued", logging.ExportID(exportID), logging.Day(dayID))
	return s.Get(ctx, exportID)
}

// Get fetches an item by export id. A missing item returns (nil, nil).
func (s *Store) Get(ctx context.Context, exportID string) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM outbox_items WHERE export_id = ?`, exportID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get export: %w", err)
	}
	return item, nil
}

// FindByDay returns the newest item for dayID, or nil.
func (s *Store) FindByDay(ctx context.Context, dayID string) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM outbox_items WHERE day_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		dayID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by day: %w", err)
	}
	return item, nil
}

// List returns items filtered by status set (or all items when no status is
// provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + itemColumns + ` FROM outbox_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextEligible returns the oldest pending item, else the oldest failed item
// with retry budget left whose backoff has elapsed. Nil means nothing to do.
func (s *Store) NextEligible(ctx context.Context, now time.Time, maxRetries int) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM outbox_items WHERE status = ? ORDER BY created_at, rowid LIMIT 1`,
		StatusPending,
	)
	item, err := scanItem(row)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("next pending: %w", err)
	}

	row = s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM outbox_items
         WHERE status = ? AND retries < ? AND (next_attempt IS NULL OR next_attempt <= ?)
         ORDER BY created_at, rowid LIMIT 1`,
		StatusFailed, maxRetries, formatTime(now),
	)
	item, err = scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next failed: %w", err)
	}
	return item, nil
}
