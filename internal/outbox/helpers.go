package outbox

import (
	"database/sql"
	"encoding/json"
	"time"
)

const itemColumns = "export_id, day_id, status, retries, created_at, last_attempt, sending_since, next_attempt, error_message, packet_json"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, raw.String)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, raw.String); err != nil {
			return nil
		}
	}
	return &t
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item         Item
		statusStr    string
		createdRaw   string
		lastAttempt  sql.NullString
		sendingSince sql.NullString
		nextAttempt  sql.NullString
		errorMessage sql.NullString
		packet       string
	)
	if err := scanner.Scan(
		&item.ExportID,
		&item.DayID,
		&statusStr,
		&item.Retries,
		&createdRaw,
		&lastAttempt,
		&sendingSince,
		&nextAttempt,
		&errorMessage,
		&packet,
	); err != nil {
		return nil, err
	}
	item.Status = Status(statusStr)
	if created := parseTime(sql.NullString{String: createdRaw, Valid: true}); created != nil {
		item.CreatedAt = *created
	}
	item.LastAttempt = parseTime(lastAttempt)
	item.SendingSince = parseTime(sendingSince)
	item.NextAttempt = parseTime(nextAttempt)
	if errorMessage.Valid {
		item.Error = errorMessage.String
	}
	item.Packet = json.RawMessage(packet)
	return &item, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
