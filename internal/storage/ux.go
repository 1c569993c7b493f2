package storage

import (
	"encoding/json"

	"punchout/internal/daylog"
)

// LoadUx returns the persisted UX cursor. Unreadable data yields the zero value.
func (s *Store) LoadUx() daylog.UxState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(KeyUx) {
		return daylog.UxState{}
	}
	raw, err := s.d.Read(KeyUx)
	if err != nil {
		return daylog.UxState{}
	}
	var ux daylog.UxState
	if err := json.Unmarshal(raw, &ux); err != nil {
		s.logger.Debug("ux state unreadable", "error", err)
		return daylog.UxState{}
	}
	return ux
}

// SaveUx writes the UX cursor.
func (s *Store) SaveUx(ux daylog.UxState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(KeyUx, ux)
}

// ClearUx writes the zero cursor.
func (s *Store) ClearUx() error {
	return s.SaveUx(daylog.UxState{})
}
