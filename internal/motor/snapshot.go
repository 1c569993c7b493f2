package motor

import (
	"context"

	"punchout/internal/daylog"
	"punchout/internal/outbox"
	"punchout/internal/storage"
	"punchout/internal/voice"
)

// Snapshot is a deep copy of everything the presentation layer shows.
type Snapshot struct {
	AppState     daylog.AppState       `json:"appState"`
	DayLog       *daylog.DayLog        `json:"dayLog"`
	UxState      daylog.UxState        `json:"uxState"`
	StorageError *storage.StorageError `json:"storageError,omitempty"`
	IsStaleDay   bool                  `json:"isStaleDay"`

	VoiceState     voice.State `json:"voiceState"`
	VoiceError     string      `json:"voiceError,omitempty"`
	IsListening    bool        `json:"isListening"`
	VoiceSupported bool        `json:"voiceSupported"`

	// EditingIndex is -1 when no entry is being edited.
	EditingIndex int `json:"editingIndex"`

	OutboxStatus  outbox.Summary `json:"outboxStatus"`
	ExportEnabled bool           `json:"exportEnabled"`
	ExportStatus  string         `json:"exportStatus"`

	ReadyToLock     bool `json:"readyToLock"`
	UnresolvedCount int  `json:"unresolvedCount"`

	Revision uint64 `json:"revision"`
}

// Snapshot returns the current state. It never bumps the revision.
func (m *Motor) Snapshot(ctx context.Context) Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		AppState:     m.appState,
		DayLog:       m.day.Clone(),
		UxState:      m.ux.Clone(),
		IsStaleDay:   m.staleLocked(),
		EditingIndex: m.editingIndex,
		Revision:     m.rev,
	}
	if m.storageErr != nil {
		errCopy := *m.storageErr
		snap.StorageError = &errCopy
	}
	if m.day != nil {
		snap.ReadyToLock = m.day.ReadyToLock
		snap.UnresolvedCount = len(m.unresolvedLocked())
	}
	m.mu.Unlock()

	vs := m.voice.Status()
	snap.VoiceState = vs.State
	snap.VoiceError = vs.Error
	snap.IsListening = vs.Listening
	snap.VoiceSupported = vs.Supported

	snap.ExportEnabled = m.cfg.ExportEnabled()
	var exportID string
	if snap.DayLog != nil {
		exportID = snap.DayLog.ExportID
	}
	snap.ExportStatus = m.exportStatus(ctx, exportID)
	if m.outbox != nil {
		if summary, err := m.outbox.Status(ctx); err == nil {
			snap.OutboxStatus = summary
		}
	}
	return snap
}

// History returns the locked days, newest first.
func (m *Motor) History() []*daylog.DayLog {
	return m.store.History()
}

// FindHistory returns the locked day for date, or nil.
func (m *Motor) FindHistory(date string) *daylog.DayLog {
	return m.store.FindHistory(date)
}
