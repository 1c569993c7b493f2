package daylog

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// CurrentVersion is written into every new DayLog.
const CurrentVersion = 1

// ExternalTask records that the user was sent to an external system.
type ExternalTask struct {
	System          string            `json:"system"`
	Params          map[string]string `json:"params,omitempty"`
	OpenedAt        time.Time         `json:"openedAt"`
	ConfirmedByUser bool              `json:"confirmedByUser"`
	ConfirmedAt     *time.Time        `json:"confirmedAt,omitempty"`
}

// DayLog is the single mutable aggregate for one calendar day.
type DayLog struct {
	Version               int               `json:"version"`
	Date                  string            `json:"date"`
	SessionID             string            `json:"sessionId"`
	Status                AppState          `json:"status"`
	StartTime             string            `json:"startTime"`
	StartTimeSource       StartTimeSource   `json:"startTimeSource"`
	EndTime               string            `json:"endTime"`
	Phase                 Phase             `json:"phase"`
	Entries               []Entry           `json:"entries"`
	Drafts                map[string]*Draft `json:"drafts"`
	Schemas               []*SchemaInstance `json:"schemas"`
	MainTimeHandled       bool              `json:"mainTimeHandled"`
	MainTimeDiscarded     bool              `json:"mainTimeDiscarded,omitempty"`
	MainTimeDiscardReason string            `json:"mainTimeDiscardReason,omitempty"`
	ReadyToLock           bool              `json:"readyToLock"`
	ExportID              string            `json:"exportId,omitempty"`
	ExternalTasks         []ExternalTask    `json:"externalTasks,omitempty"`
}

// New returns a fresh day in phase pre with no start time.
func New(date, sessionID string) *DayLog {
	return &DayLog{
		Version:         CurrentVersion,
		Date:            date,
		SessionID:       sessionID,
		Status:          Active,
		StartTimeSource: SourcePending,
		Phase:           PhasePre,
		Entries:         []Entry{},
		Drafts:          map[string]*Draft{},
		Schemas:         []*SchemaInstance{},
	}
}

// Schema returns the instance with id, or nil.
func (d *DayLog) Schema(id string) *SchemaInstance {
	for _, s := range d.Schemas {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SchemasOfType returns instances of type typ in creation order.
func (d *DayLog) SchemasOfType(typ string) []*SchemaInstance {
	var out []*SchemaInstance
	for _, s := range d.Schemas {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// HasSchemaType reports whether an instance of typ exists with origin.
func (d *DayLog) HasSchemaType(typ string, origin Origin) bool {
	for _, s := range d.Schemas {
		if s.Type == typ && s.Origin == origin {
			return true
		}
	}
	return false
}

// Draft returns the draft keyed by ordre, or nil.
func (d *DayLog) Draft(ordre string) *Draft {
	if d.Drafts == nil {
		return nil
	}
	return d.Drafts[ordre]
}

// EnsureDraft returns the draft for ordre, creating an open one if needed.
func (d *DayLog) EnsureDraft(ordre string, isMain bool) *Draft {
	if d.Drafts == nil {
		d.Drafts = map[string]*Draft{}
	}
	if draft, ok := d.Drafts[ordre]; ok {
		if isMain {
			draft.IsMain = true
		}
		return draft
	}
	draft := NewDraft(ordre, d.Date, isMain)
	d.Drafts[ordre] = draft
	return draft
}

// DraftOrdres returns the draft keys sorted for deterministic iteration.
func (d *DayLog) DraftOrdres() []string {
	keys := make([]string, 0, len(d.Drafts))
	for k := range d.Drafts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entry returns a pointer to entry i, or nil when out of range.
func (d *DayLog) Entry(i int) *Entry {
	if i < 0 || i >= len(d.Entries) {
		return nil
	}
	return &d.Entries[i]
}

// Clone returns a deep copy.
func (d *DayLog) Clone() *DayLog {
	if d == nil {
		return nil
	}
	out := *d
	out.Entries = slices.Clone(d.Entries)
	if out.Entries == nil {
		out.Entries = []Entry{}
	}
	out.Drafts = make(map[string]*Draft, len(d.Drafts))
	for k, v := range d.Drafts {
		out.Drafts[k] = v.Clone()
	}
	out.Schemas = make([]*SchemaInstance, 0, len(d.Schemas))
	for _, s := range d.Schemas {
		out.Schemas = append(out.Schemas, s.Clone())
	}
	if d.ExternalTasks != nil {
		out.ExternalTasks = make([]ExternalTask, len(d.ExternalTasks))
		for i, task := range d.ExternalTasks {
			task.Params = maps.Clone(task.Params)
			if task.ConfirmedAt != nil {
				stamp := *task.ConfirmedAt
				task.ConfirmedAt = &stamp
			}
			out.ExternalTasks[i] = task
		}
	}
	return &out
}
