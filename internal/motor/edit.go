package motor

import (
	"strings"

	"punchout/internal/daylog"
	"punchout/internal/schema"
)

// OpenSchemaEdit opens the form editor for schema id.
func (m *Motor) OpenSchemaEdit(id string) Result {
	return m.command("open_schema_edit", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		if m.day.Schema(id) == nil {
			return rejected(ReasonNotFound)
		}
		m.setUxLocked(daylog.UxState{ActiveOverlay: daylog.OverlaySchemaEdit, SchemaID: id})
		return applied()
	})
}

func (m *Motor) editingSchemaLocked() *daylog.SchemaInstance {
	if m.appState != daylog.Active || m.day == nil || m.ux.ActiveOverlay != daylog.OverlaySchemaEdit {
		return nil
	}
	return m.day.Schema(m.ux.SchemaID)
}

// SetSchemaField sets one field of the schema being edited from raw input.
// Empty input clears the field.
func (m *Motor) SetSchemaField(key, raw string) Result {
	return m.command("set_schema_field", func() Result {
		s := m.editingSchemaLocked()
		if s == nil {
			return rejected(ReasonWrongState)
		}
		if s.Status == daylog.SchemaConfirmed || s.Status == daylog.SchemaDiscarded {
			return rejected(ReasonAlreadyConfirmed)
		}
		def, ok := schema.Lookup(s)
		if !ok {
			return rejected(ReasonNotFound)
		}
		value, err := schema.CoerceField(def, key, raw)
		if err != nil {
			return rejected(ReasonInvalidInput)
		}
		if s.Fields == nil {
			s.Fields = map[string]any{}
		}
		s.Fields[key] = value
		m.saveLocked()
		return applied()
	})
}

// SaveSchemaEdit closes the editor. A complete pre-day form saved before
// work starts counts as confirmed.
func (m *Motor) SaveSchemaEdit() Result {
	return m.command("save_schema_edit", func() Result {
		s := m.editingSchemaLocked()
		if s == nil {
			return rejected(ReasonWrongState)
		}
		if s.Origin == daylog.OriginPreDay && m.day.Phase == daylog.PhasePre && s.Status != daylog.SchemaConfirmed {
			// An incomplete form stays a draft.
			if def, ok := schema.Lookup(s); ok && len(schema.MissingRequired(def, s.Fields)) == 0 {
				s.Confirm(m.now())
			}
		}
		if m.day.Phase == daylog.PhaseEnding {
			m.recomputeReadinessLocked()
		}
		m.clearUxLocked()
		m.saveLocked()
		return applied()
	})
}

// CloseSchemaEdit closes the editor, keeping field changes already made.
func (m *Motor) CloseSchemaEdit() Result {
	return m.command("close_schema_edit", func() Result {
		if m.ux.ActiveOverlay != daylog.OverlaySchemaEdit {
			return rejected(ReasonWrongState)
		}
		m.clearUxLocked()
		return applied()
	})
}

// OpenDraftEdit opens the editor for the draft of ordre.
func (m *Motor) OpenDraftEdit(ordre string) Result {
	return m.command("open_draft_edit", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		if m.day.Draft(ordre) == nil {
			return rejected(ReasonNotFound)
		}
		m.setUxLocked(daylog.UxState{ActiveOverlay: daylog.OverlayDraftEdit, DraftOrdre: ordre})
		return applied()
	})
}

// SaveDraftEdit replaces the range and resources of the draft being edited.
// Empty times clear the bound.
func (m *Motor) SaveDraftEdit(fra, til string, ressurser []string) Result {
	return m.command("save_draft_edit", func() Result {
		if m.appState != daylog.Active || m.day == nil || m.ux.ActiveOverlay != daylog.OverlayDraftEdit {
			return rejected(ReasonWrongState)
		}
		d := m.day.Draft(m.ux.DraftOrdre)
		if d == nil {
			return rejected(ReasonNotFound)
		}
		fra, til = strings.TrimSpace(fra), strings.TrimSpace(til)
		if !clockOrEmpty(fra) || !clockOrEmpty(til) {
			return rejected(ReasonInvalidInput)
		}
		d.FraTid = fra
		d.TilTid = til
		cleaned := []string{}
		for _, r := range ressurser {
			if r = strings.TrimSpace(r); r != "" {
				cleaned = append(cleaned, r)
			}
		}
		d.Ressurser = cleaned
		m.clearUxLocked()
		m.saveLocked()
		return applied()
	})
}

// CloseDraftEdit closes the draft editor.
func (m *Motor) CloseDraftEdit() Result {
	return m.command("close_draft_edit", func() Result {
		if m.ux.ActiveOverlay != daylog.OverlayDraftEdit {
			return rejected(ReasonWrongState)
		}
		m.clearUxLocked()
		return applied()
	})
}
