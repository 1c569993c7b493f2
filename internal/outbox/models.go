package outbox

import (
	"encoding/json"
	"time"
)

// Status is the delivery status of an outbox item.
type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Item is one queued export.
type Item struct {
	ExportID     string          `json:"exportId"`
	DayID        string          `json:"dayId"`
	Status       Status          `json:"status"`
	Retries      int             `json:"retries"`
	CreatedAt    time.Time       `json:"createdAt"`
	LastAttempt  *time.Time      `json:"lastAttempt,omitempty"`
	SendingSince *time.Time      `json:"sendingSince,omitempty"`
	NextAttempt  *time.Time      `json:"nextAttempt,omitempty"`
	Error        string          `json:"error,omitempty"`
	Packet       json.RawMessage `json:"packet"`
}

// Summary is the status breakdown shown to the user. Sending items count
// as pending.
type Summary struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// Total returns the number of items.
func (s Summary) Total() int {
	return s.Pending + s.Sent + s.Failed
}

// DatabaseHealth describes database-level diagnostics.
type DatabaseHealth struct {
	DBPath           string `json:"dbPath"`
	DatabaseExists   bool   `json:"databaseExists"`
	DatabaseReadable bool   `json:"databaseReadable"`
	SchemaVersion    int    `json:"schemaVersion"`
	TableExists      bool   `json:"tableExists"`
	TotalItems       int    `json:"totalItems"`
	Error            string `json:"error,omitempty"`
}
