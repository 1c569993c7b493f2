package motor

import (
	"context"

	"punchout/internal/daylog"
	"punchout/internal/outbox"
	"punchout/internal/storage"
)

// Storage is the persistence the Motor needs. *storage.Store satisfies it.
type Storage interface {
	LoadCurrent() (storage.CurrentDay, *storage.StorageError)
	SaveCurrent(state daylog.AppState, day *daylog.DayLog) error
	ResetCurrentDay() error
	PushHistory(day *daylog.DayLog) error
	History() []*daylog.DayLog
	FindHistory(date string) *daylog.DayLog
	LoadUx() daylog.UxState
	SaveUx(ux daylog.UxState) error
	ClearUx() error
	DeviceID() (string, error)
}

// Outbox is the export queue the Motor writes to. *outbox.Store satisfies it.
type Outbox interface {
	Enqueue(ctx context.Context, exportID, dayID string, packet []byte) (*outbox.Item, error)
	Get(ctx context.Context, exportID string) (*outbox.Item, error)
	FindByDay(ctx context.Context, dayID string) (*outbox.Item, error)
	Status(ctx context.Context) (outbox.Summary, error)
}

var (
	_ Storage = (*storage.Store)(nil)
	_ Outbox  = (*outbox.Store)(nil)
)
