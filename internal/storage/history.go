package storage

import (
	"encoding/json"

	"punchout/internal/daylog"
	"punchout/internal/logging"
)

// History returns locked days, most recent first. An unreadable history is
// logged and treated as empty.
func (s *Store) History() []*daylog.DayLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

func (s *Store) historyLocked() []*daylog.DayLog {
	if !s.d.Has(KeyHistory) {
		return []*daylog.DayLog{}
	}
	raw, err := s.d.Read(KeyHistory)
	if err != nil {
		return []*daylog.DayLog{}
	}
	var days []*daylog.DayLog
	if err := json.Unmarshal(raw, &days); err != nil {
		logging.WarnWithContext(s.logger, "history unreadable", "history_corrupt",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "history is rebuilt from the next locked day"),
			logging.String(logging.FieldImpact, "previous days are not listed"),
		)
		return []*daylog.DayLog{}
	}
	out := days[:0]
	for _, day := range days {
		if day != nil {
			out = append(out, day)
		}
	}
	return out
}

// PushHistory prepends day and trims the list to HistoryLimit.
func (s *Store) PushHistory(day *daylog.DayLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushHistoryLocked(day)
}

func (s *Store) pushHistoryLocked(day *daylog.DayLog) error {
	if day == nil {
		return nil
	}
	days := append([]*daylog.DayLog{day.Clone()}, s.historyLocked()...)
	if len(days) > HistoryLimit {
		days = days[:HistoryLimit]
	}
	return s.writeJSON(KeyHistory, days)
}

// FindHistory returns the most recent locked day with date, or nil.
func (s *Store) FindHistory(date string) *daylog.DayLog {
	for _, day := range s.History() {
		if day.Date == date {
			return day
		}
	}
	return nil
}
