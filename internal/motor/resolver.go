package motor

import (
	"strings"

	"punchout/internal/daylog"
	"punchout/internal/logging"
	"punchout/internal/schema"
)

// Item kinds.
const (
	KindSchema   = "schema"
	KindFriksjon = "friksjon"
	KindMainTime = "main_time"
	KindDraft    = "draft"
)

// Resolve actions.
const (
	ActionConfirm = "confirm"
	ActionDiscard = "discard"
)

const (
	mainTimeID     = "main_time"
	schemaPrefix   = "schema_"
	friksjonPrefix = "friksjon_"
	draftPrefix    = "draft_"
)

// Item is one open decision in Håndrens.
type Item struct {
	ID    string         `json:"id"`
	Kind  string         `json:"kind"`
	Label string         `json:"label"`
	Data  map[string]any `json:"data"`
}

// ResolveData carries optional input for ResolveItem. Nil slices leave the
// stored lines untouched.
type ResolveData struct {
	Reason      string
	Lonnskoder  []daylog.WageLine
	Maskintimer []daylog.MachineLine
	// Fields are raw values applied to a schema before it is confirmed.
	Fields map[string]string
}

// UnresolvedItems lists every open decision of the day, in a stable order.
func (m *Motor) UnresolvedItems() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unresolvedLocked()
}

func (m *Motor) unresolvedLocked() []Item {
	day := m.day
	if day == nil {
		return nil
	}
	items := []Item{}
	for _, s := range day.Schemas {
		if s.Type == schema.TypeFriksjonsmaling {
			continue
		}
		// The morning SJA is decided before work starts unless it was forced past.
		if s.Type == schema.TypeSJAPreDay && s.Status != daylog.SchemaForceSkipped {
			continue
		}
		if !s.Open() {
			continue
		}
		items = append(items, Item{
			ID:    schemaPrefix + s.ID,
			Kind:  KindSchema,
			Label: schema.Label(s.Type),
			Data: map[string]any{
				"schemaId":      s.ID,
				"type":          s.Type,
				"status":        string(s.Status),
				"fields":        cloneFields(s.Fields),
				"linkedEntries": append([]int{}, s.LinkedEntries...),
			},
		})
	}
	for _, s := range day.Schemas {
		if s.Type != schema.TypeFriksjonsmaling || s.Status != daylog.SchemaDraft {
			continue
		}
		items = append(items, Item{
			ID:    friksjonPrefix + s.ID,
			Kind:  KindFriksjon,
			Label: schema.Label(s.Type),
			Data:  map[string]any{"schemaId": s.ID, "fields": cloneFields(s.Fields)},
		})
	}
	if !day.MainTimeHandled {
		if main := day.Draft(m.hovedordre()); main != nil {
			items = append(items, Item{
				ID:    mainTimeID,
				Kind:  KindMainTime,
				Label: "Hovedtimeføring",
				Data: map[string]any{
					"ordre":      main.Ordre,
					"startTime":  day.StartTime,
					"endTime":    day.EndTime,
					"lonnskoder": append([]daylog.WageLine{}, main.Lonnskoder...),
				},
			})
		}
	}
	for _, ordre := range day.DraftOrdres() {
		if ordre == m.hovedordre() {
			continue
		}
		d := day.Drafts[ordre]
		if d.Status != daylog.DraftOpen {
			continue
		}
		items = append(items, Item{
			ID:    draftPrefix + ordre,
			Kind:  KindDraft,
			Label: "Timeark – " + ordre,
			Data:  map[string]any{"ordre": ordre, "beskrivelse": strings.Join(d.Arbeidsbeskrivelse, ". ")},
		})
	}
	return items
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (m *Motor) recomputeReadinessLocked() {
	if m.day == nil {
		return
	}
	m.day.ReadyToLock = len(m.unresolvedLocked()) == 0
}

func (m *Motor) listedLocked(id string) bool {
	for _, item := range m.unresolvedLocked() {
		if item.ID == id {
			return true
		}
	}
	return false
}

// ResolveItem confirms or discards one Håndrens item. Only items currently
// listed by UnresolvedItems can be resolved.
func (m *Motor) ResolveItem(id, action string, data ResolveData) Result {
	return m.command("resolve_item", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		if action != ActionConfirm && action != ActionDiscard {
			return rejected(ReasonInvalidAction)
		}
		if !m.listedLocked(id) {
			m.logger.Debug("resolve rejected", logging.String("item", id), logging.Reason(ReasonNotFound))
			return rejected(ReasonNotFound)
		}

		var res Result
		switch {
		case id == mainTimeID:
			res = m.resolveMainTimeLocked(action, data)
		case strings.HasPrefix(id, schemaPrefix):
			res = m.resolveSchemaLocked(strings.TrimPrefix(id, schemaPrefix), action, data)
		case strings.HasPrefix(id, friksjonPrefix):
			res = m.resolveSchemaLocked(strings.TrimPrefix(id, friksjonPrefix), action, data)
		case strings.HasPrefix(id, draftPrefix):
			res = m.resolveDraftLocked(strings.TrimPrefix(id, draftPrefix), action)
		default:
			res = rejected(ReasonNotFound)
		}
		if !res.Applied {
			m.logger.Debug("resolve rejected", logging.String("item", id), logging.Reason(res.Reason))
			return res
		}
		m.recomputeReadinessLocked()
		m.saveLocked()
		return res
	})
}

func (m *Motor) resolveSchemaLocked(schemaID, action string, data ResolveData) Result {
	s := m.day.Schema(schemaID)
	if s == nil {
		return rejected(ReasonNotFound)
	}
	def, ok := schema.Lookup(s)
	if !ok {
		return rejected(ReasonNotFound)
	}
	now := m.now()

	if action == ActionDiscard {
		if s.Status == daylog.SchemaForceSkipped && m.schemaRequired(s.Type) {
			return rejected(ReasonForceSkipped)
		}
		s.Status = daylog.SchemaDiscarded
		m.propagateLocked(s, false)
		return applied()
	}

	fields := cloneFields(s.Fields)
	for key, raw := range data.Fields {
		value, err := schema.CoerceField(def, key, raw)
		if err != nil {
			return rejected(ReasonInvalidInput)
		}
		fields[key] = value
	}
	if missing := schema.MissingRequired(def, fields); len(missing) > 0 {
		return rejected(ReasonMissingFields)
	}
	s.Fields = fields
	s.Confirm(now)
	m.propagateLocked(s, true)
	return applied()
}

// propagateLocked copies a schema decision onto its linked entries.
func (m *Motor) propagateLocked(s *daylog.SchemaInstance, confirmed bool) {
	for _, idx := range s.LinkedEntries {
		e := m.day.Entry(idx)
		if e == nil {
			continue
		}
		switch s.Type {
		case schema.TypeVaktlogg:
			e.VaktloggConfirmed = confirmed
			e.VaktloggDiscarded = !confirmed
		case schema.TypeRUH:
			if confirmed {
				e.RUHDecision = daylog.RUHYes
			} else {
				e.RUHDecision = daylog.RUHNo
			}
		}
	}
}

func (m *Motor) resolveMainTimeLocked(action string, data ResolveData) Result {
	main := m.day.Draft(m.hovedordre())
	if main == nil {
		return rejected(ReasonNotFound)
	}
	if action == ActionDiscard {
		if !daylog.ValidDiscardReason(data.Reason) {
			return rejected(ReasonInvalidReason)
		}
		main.Status = daylog.DraftDiscarded
		m.day.MainTimeDiscarded = true
		m.day.MainTimeDiscardReason = data.Reason
		m.day.MainTimeHandled = true
		return applied()
	}

	lonnskoder := main.Lonnskoder
	if data.Lonnskoder != nil {
		lonnskoder = data.Lonnskoder
	}
	if len(lonnskoder) == 0 {
		return rejected(ReasonNoWageLines)
	}
	if !completeWageLines(lonnskoder) {
		return rejected(ReasonInvalidInput)
	}
	main.Lonnskoder = append([]daylog.WageLine{}, lonnskoder...)
	if data.Maskintimer != nil {
		main.Maskintimer = append([]daylog.MachineLine{}, data.Maskintimer...)
	}
	main.RecomputeFromWageLines()
	main.Confirm(m.now())
	m.day.MainTimeHandled = true
	m.day.MainTimeDiscarded = false
	m.day.MainTimeDiscardReason = ""
	return applied()
}

func (m *Motor) resolveDraftLocked(ordre, action string) Result {
	if ordre == m.hovedordre() {
		return rejected(ReasonNotFound)
	}
	d := m.day.Draft(ordre)
	if d == nil {
		return rejected(ReasonNotFound)
	}
	if action == ActionDiscard {
		d.Status = daylog.DraftDiscarded
		return applied()
	}
	d.Confirm(m.now())
	return applied()
}
