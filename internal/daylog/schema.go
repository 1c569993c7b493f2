package daylog

import (
	"maps"
	"slices"
	"time"
)

// SchemaInstance is a runtime instance of a form definition. Field values
// are nil, string, bool or float64.
type SchemaInstance struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	Origin         Origin         `json:"origin"`
	Status         SchemaStatus   `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	ConfirmedAt    *time.Time     `json:"confirmedAt,omitempty"`
	ForceSkippedAt *time.Time     `json:"forceSkippedAt,omitempty"`
	Fields         map[string]any `json:"fields"`
	LinkedEntries  []int          `json:"linkedEntries"`
}

// Link records an entry index once.
func (s *SchemaInstance) Link(index int) {
	if !slices.Contains(s.LinkedEntries, index) {
		s.LinkedEntries = append(s.LinkedEntries, index)
	}
}

// Confirm marks the instance confirmed.
func (s *SchemaInstance) Confirm(now time.Time) {
	s.Status = SchemaConfirmed
	stamp := now
	s.ConfirmedAt = &stamp
}

// ForceSkip marks the instance force_skipped.
func (s *SchemaInstance) ForceSkip(now time.Time) {
	s.Status = SchemaForceSkipped
	stamp := now
	s.ForceSkippedAt = &stamp
}

// Open reports whether the instance still awaits a decision.
func (s *SchemaInstance) Open() bool {
	switch s.Status {
	case SchemaDraft, SchemaDeferred, SchemaForceSkipped:
		return true
	default:
		return false
	}
}

// Clone returns a deep copy.
func (s *SchemaInstance) Clone() *SchemaInstance {
	if s == nil {
		return nil
	}
	out := *s
	out.Fields = maps.Clone(s.Fields)
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}
	out.LinkedEntries = slices.Clone(s.LinkedEntries)
	if out.LinkedEntries == nil {
		out.LinkedEntries = []int{}
	}
	if s.ConfirmedAt != nil {
		stamp := *s.ConfirmedAt
		out.ConfirmedAt = &stamp
	}
	if s.ForceSkippedAt != nil {
		stamp := *s.ForceSkippedAt
		out.ForceSkippedAt = &stamp
	}
	return &out
}
