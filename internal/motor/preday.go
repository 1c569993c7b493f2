package motor

import (
	"punchout/internal/config"
	"punchout/internal/daylog"
	"punchout/internal/logging"
)

// IsSchemaRequired reports whether the admin rules require typ right now.
// The first rule naming typ decides.
func (m *Motor) IsSchemaRequired(typ string) bool {
	return m.schemaRequired(typ)
}

func (m *Motor) schemaRequired(typ string) bool {
	ctx := m.ruleContext()
	for _, req := range m.cfg.Admin.RequiredSchemas {
		if req.Schema == typ {
			return req.Holds(ctx)
		}
	}
	return false
}

// ConditionalSchemaForNow returns the first conditional suggestion whose
// rule holds, or nil.
func (m *Motor) ConditionalSchemaForNow() *config.ConditionalSchema {
	ctx := m.ruleContext()
	for _, cs := range m.cfg.Admin.ConditionalSchemas {
		if cs.Holds(ctx) {
			out := cs
			return &out
		}
	}
	return nil
}

// RequiredSchemasNotConfirmed returns copies of the required pre-day
// instances that are not confirmed yet.
func (m *Motor) RequiredSchemasNotConfirmed() []*daylog.SchemaInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*daylog.SchemaInstance
	for _, s := range m.requiredPendingLocked() {
		out = append(out, s.Clone())
	}
	return out
}

func (m *Motor) requiredPendingLocked() []*daylog.SchemaInstance {
	if m.day == nil {
		return nil
	}
	var out []*daylog.SchemaInstance
	for _, s := range m.day.Schemas {
		if s.Origin != daylog.OriginPreDay || s.Status == daylog.SchemaConfirmed {
			continue
		}
		if m.schemaRequired(s.Type) {
			out = append(out, s)
		}
	}
	return out
}

func (m *Motor) preDaySchemaLocked(id string) (*daylog.SchemaInstance, Result) {
	if !m.activeLocked() {
		return nil, rejected(ReasonWrongState)
	}
	s := m.day.Schema(id)
	if s == nil || s.Origin != daylog.OriginPreDay {
		return nil, rejected(ReasonNotFound)
	}
	if m.schemaRequired(s.Type) {
		return nil, rejected(ReasonRequiredSchema)
	}
	return s, applied()
}

// SkipPreDaySchema marks an optional pre-day form skipped.
func (m *Motor) SkipPreDaySchema(id string) Result {
	return m.command("skip_pre_day_schema", func() Result {
		s, res := m.preDaySchemaLocked(id)
		if !res.Applied {
			return res
		}
		s.Status = daylog.SchemaSkipped
		m.saveLocked()
		return applied()
	})
}

// DeferPreDaySchema postpones an optional pre-day form to the end of the day.
func (m *Motor) DeferPreDaySchema(id string) Result {
	return m.command("defer_pre_day_schema", func() Result {
		s, res := m.preDaySchemaLocked(id)
		if !res.Applied {
			return res
		}
		s.Status = daylog.SchemaDeferred
		m.saveLocked()
		return applied()
	})
}

// SkipAllPreDay skips every optional pre-day form still in draft.
func (m *Motor) SkipAllPreDay() Result {
	return m.command("skip_all_pre_day", func() Result {
		if !m.activeLocked() {
			return rejected(ReasonWrongState)
		}
		var n int
		for _, s := range m.day.Schemas {
			if s.Origin != daylog.OriginPreDay || s.Status != daylog.SchemaDraft || m.schemaRequired(s.Type) {
				continue
			}
			s.Status = daylog.SchemaSkipped
			n++
		}
		if n == 0 {
			return rejected(ReasonNotFound)
		}
		m.saveLocked()
		return applied()
	})
}

// ContinueFromPreDay starts work. It is blocked while a required form is
// unconfirmed.
func (m *Motor) ContinueFromPreDay() Result {
	return m.command("continue_from_pre_day", func() Result {
		if !m.activeLocked() || m.day.Phase != daylog.PhasePre {
			return rejected(ReasonWrongState)
		}
		if len(m.requiredPendingLocked()) > 0 {
			return rejected(ReasonRequiredPending)
		}
		m.day.Phase = daylog.PhaseActive
		m.saveLocked()
		return applied()
	})
}

// ForceStartDay starts work past unconfirmed required forms. They become
// force_skipped and come back during Håndrens.
func (m *Motor) ForceStartDay() Result {
	return m.command("force_start_day", func() Result {
		if !m.activeLocked() || m.day.Phase != daylog.PhasePre {
			return rejected(ReasonWrongState)
		}
		now := m.now()
		pending := m.requiredPendingLocked()
		for _, s := range pending {
			s.ForceSkip(now)
		}
		m.day.Phase = daylog.PhaseActive
		m.saveLocked()
		if len(pending) > 0 {
			logging.WarnWithContext(m.logger, "required schemas force skipped", "force_start",
				logging.Day(m.day.Date),
				logging.Int("count", len(pending)),
				logging.String(logging.FieldErrorHint, "complete the forms before locking the day"),
				logging.String(logging.FieldImpact, "the day cannot be locked until they are confirmed"),
			)
		}
		return applied()
	})
}
