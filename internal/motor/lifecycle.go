package motor

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"punchout/internal/daylog"
	"punchout/internal/export"
	"punchout/internal/extract"
	"punchout/internal/logging"
	"punchout/internal/outbox"
	"punchout/internal/schema"
	"punchout/internal/storage"
)

// StartDay creates the day from optional start text. The day always opens in
// phase pre and without a start time.
func (m *Motor) StartDay(text string) Result {
	return m.command("start_day", func() Result {
		if m.appState != daylog.NotStarted || m.day != nil {
			return rejected(ReasonWrongState)
		}
		now := m.now()
		day := daylog.New(daylog.FormatDate(now), uuid.NewString())

		sctx := extract.ContextFromText(text)
		ictx := schema.InstanceContext{Now: now, Date: day.Date, Ordre: sctx.Ordre, Vehicle: sctx.Vehicle}
		available := m.cfg.Admin.AvailablePreDaySchemas
		for _, def := range schema.DetectPreDay(text) {
			if len(available) > 0 && !slices.Contains(available, def.Type) {
				continue
			}
			day.Schemas = append(day.Schemas, schema.NewInstance(def, daylog.OriginPreDay, ictx))
		}

		rctx := m.ruleContext()
		for _, req := range m.cfg.Admin.RequiredSchemas {
			if !req.Holds(rctx) || day.HasSchemaType(req.Schema, daylog.OriginPreDay) {
				continue
			}
			def, ok := schema.Get(schema.GroupPreDay, req.Schema)
			if !ok {
				m.logger.Warn("required schema is not a pre-day form", logging.String("schema", req.Schema))
				continue
			}
			day.Schemas = append(day.Schemas, schema.NewInstance(def, daylog.OriginPreDay, ictx))
		}

		m.day = day
		m.appState = daylog.Active
		m.editingIndex = -1
		m.staleAck = false
		m.clearUxLocked()
		m.saveLocked()
		m.logger.Info("day started",
			logging.Day(day.Date),
			logging.Int("pre_day_schemas", len(day.Schemas)),
		)
		return applied()
	})
}

// ConfirmStartTime records the user's start time. Invalid text falls back to
// the current time. A start already confirmed by the user is kept.
func (m *Motor) ConfirmStartTime(hhmm string) Result {
	return m.command("confirm_start_time", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		if m.day.StartTimeSource == daylog.SourceUser {
			return rejected(ReasonAlreadyConfirmed)
		}
		value := strings.TrimSpace(hhmm)
		if !daylog.IsClock(value) {
			value = daylog.FormatClock(m.now())
		}
		m.day.StartTime = value
		m.day.StartTimeSource = daylog.SourceUser
		m.saveLocked()
		return applied()
	})
}

// EndDay moves the day to phase ending. A second call only recomputes
// readiness.
func (m *Motor) EndDay() Result {
	return m.command("end_day", m.endDayLocked)
}

func (m *Motor) endDayLocked() Result {
	if m.appState != daylog.Active || m.day == nil {
		return rejected(ReasonWrongState)
	}
	m.drainLocked()
	day := m.day
	if day.Phase == daylog.PhaseEnding {
		m.recomputeReadinessLocked()
		m.saveLocked()
		return applied()
	}

	now := m.now()
	day.EndTime = daylog.FormatClock(now)
	day.Phase = daylog.PhaseEnding

	// Main time decided during the day keeps its lines and range.
	main := day.EnsureDraft(m.hovedordre(), true)
	if main.Status == daylog.DraftOpen {
		day.MainTimeHandled = false
		if day.StartTime != "" {
			main.FraTid = day.StartTime
		} else {
			main.FraTid = daylog.FormatClock(now)
		}
		main.TilTid = day.EndTime
	} else {
		day.MainTimeHandled = true
	}

	for i := range day.Entries {
		e := &day.Entries[i]
		if e.IsNote() && !e.Converted && !e.KeptAsNote {
			e.KeptAsNote = true
		}
	}
	for _, ordre := range day.DraftOrdres() {
		d := day.Drafts[ordre]
		if d.IsMain || ordre == m.hovedordre() {
			continue
		}
		if d.Status == daylog.DraftOpen && len(d.Arbeidsbeskrivelse) > 0 {
			d.Confirm(now)
		}
	}

	m.recomputeReadinessLocked()
	m.saveLocked()
	m.logger.Info("day ending",
		logging.Day(day.Date),
		logging.Int("unresolved", len(m.unresolvedLocked())),
	)
	return applied()
}

// LockDay freezes the day into history and queues its export. It is rejected
// while anything is unresolved or main time is unhandled.
func (m *Motor) LockDay(ctx context.Context) Result {
	var trigger bool
	res := m.command("lock_day", func() Result {
		if m.appState != daylog.Active || m.day == nil || m.day.Phase != daylog.PhaseEnding {
			return rejected(ReasonWrongState)
		}
		m.drainLocked()
		if items := m.unresolvedLocked(); len(items) > 0 {
			logging.WarnWithContext(m.logger, "lock rejected", "lock_rejected",
				logging.Day(m.day.Date),
				logging.Reason(ReasonUnresolvedItems),
				logging.Int("unresolved", len(items)),
				logging.String(logging.FieldErrorHint, "resolve the remaining items"),
				logging.String(logging.FieldImpact, "the day stays open"),
			)
			return rejected(ReasonUnresolvedItems)
		}
		if !m.day.MainTimeHandled {
			logging.WarnWithContext(m.logger, "lock rejected", "lock_rejected",
				logging.Day(m.day.Date),
				logging.Reason(ReasonMainTime),
				logging.String(logging.FieldErrorHint, "confirm or discard main time"),
				logging.String(logging.FieldImpact, "the day stays open"),
			)
			return rejected(ReasonMainTime)
		}

		day := m.day
		day.Status = daylog.Locked
		day.ReadyToLock = false
		m.appState = daylog.Locked
		m.editingIndex = -1
		m.clearUxLocked()

		trigger = m.enqueueExportLocked(ctx)
		if err := m.store.PushHistory(day.Clone()); err != nil {
			m.storageErr = storage.SaveFailure(err)
			m.logger.Error("failed to push day to history", logging.Day(day.Date), logging.Error(err))
		}
		m.saveLocked()
		m.logger.Info("day locked", logging.Day(day.Date), logging.ExportID(day.ExportID))
		return applied()
	})
	if trigger && m.syncer != nil {
		m.syncer.Trigger()
	}
	return res
}

// enqueueExportLocked builds and queues the packet. Export problems never
// block the lock.
func (m *Motor) enqueueExportLocked(ctx context.Context) bool {
	userID := strings.TrimSpace(m.cfg.Admin.UserID)
	if m.outbox == nil || !m.cfg.ExportEnabled() || userID == "" {
		return false
	}
	deviceID, err := m.store.DeviceID()
	if err != nil {
		m.logger.Warn("device id unavailable", logging.Error(err))
	}
	packet := export.BuildPacket(m.day, export.Meta{DeviceID: deviceID, UserID: userID, Now: m.now()})
	body, err := packet.Encode()
	if err != nil {
		m.logger.Error("failed to encode export packet", logging.Error(err))
		return false
	}
	if _, err := m.outbox.Enqueue(ctx, packet.ExportID, packet.DayID, body); err != nil && !errors.Is(err, outbox.ErrDuplicate) {
		logging.ErrorWithContext(m.logger, "failed to queue export", "export_enqueue",
			logging.Day(m.day.Date),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run punchout doctor to check the outbox database"),
		)
		return false
	}
	m.day.ExportID = packet.ExportID
	return true
}

// StartNewDay discards the locked day so a new one can start.
func (m *Motor) StartNewDay() Result {
	return m.command("start_new_day", func() Result {
		if m.appState != daylog.Locked && m.appState != daylog.Finished {
			return rejected(ReasonWrongState)
		}
		m.resetDayLocked()
		return applied()
	})
}

func (m *Motor) resetDayLocked() {
	m.day = nil
	m.appState = daylog.NotStarted
	m.editingIndex = -1
	m.staleAck = false
	m.clearUxLocked()
	m.saveLocked()
}

func (m *Motor) staleLocked() bool {
	if m.day == nil || m.staleAck {
		return false
	}
	return m.day.Date != daylog.FormatDate(m.now())
}

// IsStaleDay reports whether the stored day belongs to an earlier date.
func (m *Motor) IsStaleDay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.staleLocked()
}

// ContinueStaleDay acknowledges the notice and keeps working on the old day.
func (m *Motor) ContinueStaleDay() Result {
	return m.command("continue_stale_day", func() Result {
		if !m.staleLocked() {
			return rejected(ReasonWrongState)
		}
		m.staleAck = true
		return applied()
	})
}

// EndStaleDay moves a stale active day to phase ending.
func (m *Motor) EndStaleDay() Result {
	return m.command("end_stale_day", func() Result {
		if !m.staleLocked() {
			return rejected(ReasonWrongState)
		}
		m.staleAck = true
		return m.endDayLocked()
	})
}

// DiscardStaleDay drops the stale day without touching history.
func (m *Motor) DiscardStaleDay() Result {
	return m.command("discard_stale_day", func() Result {
		if !m.staleLocked() {
			return rejected(ReasonWrongState)
		}
		m.logger.Info("stale day discarded", logging.Day(m.day.Date))
		m.resetDayLocked()
		return applied()
	})
}

// ResetCurrentDayOnly erases the stored current day and clears the storage
// error. History is kept.
func (m *Motor) ResetCurrentDayOnly() Result {
	return m.command("reset_current_day_only", func() Result {
		if err := m.store.ResetCurrentDay(); err != nil {
			m.storageErr = storage.SaveFailure(err)
			return rejected(ReasonInvalidInput)
		}
		m.day = nil
		m.appState = daylog.NotStarted
		m.editingIndex = -1
		m.tasks = nil
		m.storageErr = nil
		m.clearUxLocked()
		return applied()
	})
}

// TryIgnoreError clears the storage error and continues with what loaded.
func (m *Motor) TryIgnoreError() Result {
	return m.command("try_ignore_error", func() Result {
		if m.storageErr == nil {
			return rejected(ReasonWrongState)
		}
		m.storageErr = nil
		return applied()
	})
}

// Dispatch routes a voice transcript: it starts the day when none is
// running and otherwise submits a classified entry.
func (m *Motor) Dispatch(transcript string) {
	m.mu.Lock()
	notStarted := m.appState == daylog.NotStarted
	m.mu.Unlock()
	if notStarted {
		m.StartDay(transcript)
		return
	}
	m.SubmitEntry(transcript, extract.GuessEntryType(transcript))
}

// ToggleVoice starts or stops a capture session.
func (m *Motor) ToggleVoice() {
	m.voice.Toggle()
}
