package storage

import (
	"encoding/json"

	"github.com/google/uuid"

	"punchout/internal/daylog"
	"punchout/internal/logging"
)

// CurrentDay is the loaded current-day snapshot.
type CurrentDay struct {
	AppState daylog.AppState
	Day      *daylog.DayLog
	// Migrated reports that load rewrote the stored value.
	Migrated bool
}

type currentRecord struct {
	AppState daylog.AppState `json:"appState"`
	DayLog   *daylog.DayLog  `json:"dayLog"`
}

// LoadCurrent reads the current day. It never fails hard: a missing key is
// NOT_STARTED and a corrupt payload is NOT_STARTED plus a StorageError.
func (s *Store) LoadCurrent() (CurrentDay, *StorageError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := CurrentDay{AppState: daylog.NotStarted}
	if !s.d.Has(KeyCurrentDay) {
		return empty, nil
	}
	raw, err := s.d.Read(KeyCurrentDay)
	if err != nil {
		return empty, loadFailure(err, nil)
	}
	var rec currentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		logging.WarnWithContext(s.logger, "current day unreadable", "storage_corrupt",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "reset the current day or ignore the error"),
			logging.String(logging.FieldImpact, "the active day is not loaded"),
		)
		return empty, loadFailure(err, raw)
	}
	if rec.DayLog == nil {
		return empty, nil
	}

	out := CurrentDay{AppState: rec.AppState, Day: rec.DayLog}
	out.Migrated = migrateDay(out.Day)
	if out.AppState == "" {
		out.AppState = daylog.Active
		out.Migrated = true
	}
	if out.AppState == daylog.Finished || out.Day.Status == daylog.Finished {
		out.AppState = daylog.Locked
		out.Day.Status = daylog.Locked
		out.Migrated = true
		if err := s.pushHistoryLocked(out.Day); err != nil {
			logging.WarnWithContext(s.logger, "legacy day not archived", "storage_migration_failed",
				logging.Day(out.Day.Date),
				logging.Error(err),
				logging.String(logging.FieldImpact, "day is missing from history"),
			)
		}
	}
	if out.Migrated {
		if err := s.writeJSON(KeyCurrentDay, currentRecord{AppState: out.AppState, DayLog: out.Day}); err != nil {
			logging.WarnWithContext(s.logger, "migrated day not saved", "storage_migration_failed",
				logging.Day(out.Day.Date),
				logging.Error(err),
				logging.String(logging.FieldImpact, "migration repeats on next load"),
			)
		}
		s.logger.Debug("current day migrated", logging.Day(out.Day.Date))
	}
	return out, nil
}

// migrateDay fills fields written by older versions and reports changes.
func migrateDay(day *daylog.DayLog) bool {
	changed := false
	if day.Phase == "" {
		day.Phase = daylog.PhaseActive
		changed = true
	}
	if day.Schemas == nil {
		day.Schemas = []*daylog.SchemaInstance{}
		changed = true
	}
	if day.Entries == nil {
		day.Entries = []daylog.Entry{}
		changed = true
	}
	if day.Drafts == nil {
		day.Drafts = map[string]*daylog.Draft{}
		changed = true
	}
	if day.Version == 0 {
		day.Version = daylog.CurrentVersion
		changed = true
	}
	if day.StartTime != "" && day.StartTimeSource == "" {
		day.StartTimeSource = daylog.SourceAuto
		changed = true
	}
	if day.StartTimeSource == "" {
		day.StartTimeSource = daylog.SourcePending
		changed = true
	}
	if day.SessionID == "" {
		day.SessionID = uuid.NewString()
		changed = true
	}
	if day.Status == "" {
		day.Status = daylog.Active
		changed = true
	}
	return changed
}

// SaveCurrent writes the current day, or erases it when day is nil.
func (s *Store) SaveCurrent(state daylog.AppState, day *daylog.DayLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if day == nil {
		return s.erase(KeyCurrentDay)
	}
	return s.writeJSON(KeyCurrentDay, currentRecord{AppState: state, DayLog: day})
}

// ResetCurrentDay erases the current-day key and keeps history.
func (s *Store) ResetCurrentDay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.erase(KeyCurrentDay)
}
