package motor

import (
	"slices"
	"strings"
	"unicode/utf8"

	"punchout/internal/daylog"
	"punchout/internal/extract"
	"punchout/internal/logging"
	"punchout/internal/schema"
)

// ParsedEntry is the synchronous extraction shown before a verified commit.
type ParsedEntry struct {
	Ordre     string   `json:"ordre"`
	Fra       string   `json:"fra,omitempty"`
	Til       string   `json:"til,omitempty"`
	Ressurser []string `json:"ressurser"`
	RawText   string   `json:"rawText"`
}

const conversionTitleLen = 50

// SubmitEntry commits an entry and queues its orchestration. An empty type
// is a note.
func (m *Motor) SubmitEntry(text string, typ daylog.EntryType) Result {
	return m.command("submit_entry", func() Result {
		if !m.activeLocked() {
			return rejected(ReasonWrongState)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return rejected(ReasonInvalidInput)
		}
		if typ == "" {
			typ = daylog.TypeNotat
		}
		now := m.now()
		m.beginWorkLocked()

		day := m.day
		day.Entries = append(day.Entries, daylog.Entry{Time: daylog.FormatClock(now), Type: typ, Text: text})
		index := len(day.Entries) - 1
		m.saveLocked()

		m.enqueueLocked("orchestrate", func() { m.orchestrateLocked(index) })
		return applied()
	})
}

// beginWorkLocked leaves phase pre and stamps an automatic start time.
func (m *Motor) beginWorkLocked() {
	day := m.day
	if day.Phase == daylog.PhasePre {
		day.Phase = daylog.PhaseActive
	}
	if day.StartTime == "" {
		day.StartTime = daylog.FormatClock(m.now())
		day.StartTimeSource = daylog.SourceAuto
	}
}

func (m *Motor) orchestrateLocked(index int) {
	day := m.day
	entry := day.Entry(index)
	if entry == nil {
		return
	}
	text, typ := entry.Text, entry.Type
	now := m.now()

	ex := extract.Orchestrate(text)
	if ex.Ordre != "" {
		d := day.EnsureDraft(ex.Ordre, ex.Ordre == m.hovedordre())
		d.Apply(ex.DraftUpdate(index))
		d.RebuildDescriptions(day.Entries)
	}

	m.detectRunningLocked(index, text)

	base := schema.InstanceContext{Now: now, Date: day.Date}
	if typ == daylog.TypeHendelse || slices.Contains(m.cfg.Admin.RUHTriggerTypes, string(typ)) {
		m.addDriftLocked(schema.TypeRUH, index, base, map[string]any{
			"tidspunkt":   entry.Time,
			"beskrivelse": text,
		})
	}
	if slices.Contains(m.cfg.Admin.ImmediateConfirmTypes, string(typ)) {
		m.addDriftLocked(schema.TypeVaktlogg, index, base, map[string]any{
			"tidspunkt": entry.Time,
			"innhold":   text,
		})
	}
	if slices.Contains(m.cfg.Admin.EndOfDayConfirmTypes, string(typ)) {
		prefill := map[string]any{"tidspunkt": entry.Time, "kommentar": text}
		if v, ok := extract.FrictionValue(text); ok {
			prefill["verdi"] = v
		}
		m.addDriftLocked(schema.TypeFriksjonsmaling, index, base, prefill)
	}
}

func (m *Motor) detectRunningLocked(index int, text string) {
	def, ok := schema.DetectRunning(text)
	if !ok {
		return
	}
	inst := schema.NewInstance(def, daylog.OriginRunning, schema.InstanceContext{
		Now:     m.now(),
		Date:    m.day.Date,
		Prefill: map[string]any{"beskrivelse": text},
	})
	inst.Link(index)
	m.day.Schemas = append(m.day.Schemas, inst)
}

func (m *Motor) addDriftLocked(typ string, index int, ctx schema.InstanceContext, prefill map[string]any) {
	def, ok := schema.Get(schema.GroupDrift, typ)
	if !ok {
		return
	}
	ctx.Prefill = prefill
	inst := schema.NewInstance(def, daylog.OriginDrift, ctx)
	inst.Link(index)
	m.day.Schemas = append(m.day.Schemas, inst)
	m.logger.Debug("drift schema created", logging.String("type", typ), logging.SchemaID(inst.ID))
}

// ParseEntry extracts structured facts without touching the day. It returns
// nil when no ordre is found.
func (m *Motor) ParseEntry(text string) *ParsedEntry {
	ex := extract.Orchestrate(text)
	if ex.Ordre == "" {
		return nil
	}
	return &ParsedEntry{
		Ordre:     ex.Ordre,
		Fra:       ex.Fra,
		Til:       ex.Til,
		Ressurser: ex.Ressurser,
		RawText:   text,
	}
}

// ConfirmStructuredEntry commits a verified entry and its draft in confirmed
// status. Such drafts never show up in Håndrens.
func (m *Motor) ConfirmStructuredEntry(text string, typ daylog.EntryType, parsed *ParsedEntry) Result {
	return m.command("confirm_structured_entry", func() Result {
		if !m.activeLocked() {
			return rejected(ReasonWrongState)
		}
		text = strings.TrimSpace(text)
		if text == "" || parsed == nil || parsed.Ordre == "" {
			return rejected(ReasonInvalidInput)
		}
		if typ == "" {
			typ = daylog.TypeNotat
		}
		now := m.now()
		m.beginWorkLocked()

		day := m.day
		day.Entries = append(day.Entries, daylog.Entry{
			Time:         daylog.FormatClock(now),
			Type:         typ,
			Text:         text,
			Verified:     true,
			LockedByUser: true,
		})
		index := len(day.Entries) - 1

		d := day.Draft(parsed.Ordre)
		if d == nil {
			d = day.EnsureDraft(parsed.Ordre, parsed.Ordre == m.hovedordre())
			d.FraTid = parsed.Fra
			d.TilTid = parsed.Til
			d.Arbeidsbeskrivelse = []string{text}
			d.Ressurser = append([]string{}, parsed.Ressurser...)
			d.LinkEntry(index)
			if parsed.Fra != "" && parsed.Til != "" {
				d.Lonnskoder = append(d.Lonnskoder, daylog.WageLine{Kode: m.defaultWageCode(), Fra: parsed.Fra, Til: parsed.Til})
			}
		} else {
			d.Apply(daylog.DraftUpdate{Til: parsed.Til, Ressurser: parsed.Ressurser, EntryIndex: index})
			if d.FraTid == "" {
				d.FraTid = parsed.Fra
			}
			d.AddDescription(text)
		}
		d.Confirm(now)

		m.detectRunningLocked(index, text)
		m.saveLocked()
		m.logger.Info("verified entry committed", logging.Ordre(parsed.Ordre))
		return applied()
	})
}

func (m *Motor) defaultWageCode() string {
	if codes := m.cfg.Admin.Lonnskoder; len(codes) > 0 {
		return codes[0]
	}
	return "ORD"
}

// OpenEdit selects entry i for editing.
func (m *Motor) OpenEdit(i int) Result {
	return m.command("open_edit", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		if m.day.Entry(i) == nil {
			return rejected(ReasonNotFound)
		}
		m.editingIndex = i
		return applied()
	})
}

// SaveEdit replaces the text of the entry being edited and refreshes the
// descriptions of drafts built from it.
func (m *Motor) SaveEdit(text string) Result {
	return m.command("save_edit", func() Result {
		if m.appState != daylog.Active || m.day == nil || m.editingIndex < 0 {
			return rejected(ReasonWrongState)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return rejected(ReasonInvalidInput)
		}
		entry := m.day.Entry(m.editingIndex)
		if entry == nil {
			m.editingIndex = -1
			return rejected(ReasonNotFound)
		}
		entry.Text = text
		for _, ordre := range m.day.DraftOrdres() {
			d := m.day.Drafts[ordre]
			if slices.Contains(d.EntryIndices, m.editingIndex) {
				d.RebuildDescriptions(m.day.Entries)
			}
		}
		m.editingIndex = -1
		m.saveLocked()
		return applied()
	})
}

// CancelEdit drops the editing selection.
func (m *Motor) CancelEdit() Result {
	return m.command("cancel_edit", func() Result {
		if m.editingIndex < 0 {
			return rejected(ReasonWrongState)
		}
		m.editingIndex = -1
		return applied()
	})
}

// ConvertNote turns note i into a draft conversion form of type target and
// opens it for editing.
func (m *Motor) ConvertNote(i int, target string) Result {
	return m.command("convert_note", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		entry := m.day.Entry(i)
		if entry == nil || !entry.IsNote() || entry.Converted {
			return rejected(ReasonNotFound)
		}
		if targets := m.cfg.Admin.NoteConversionTargets; len(targets) > 0 && !slices.Contains(targets, target) {
			return rejected(ReasonInvalidInput)
		}
		def, ok := schema.Get(schema.GroupConversion, target)
		if !ok {
			return rejected(ReasonInvalidInput)
		}
		inst := schema.NewInstance(def, daylog.OriginConversion, schema.InstanceContext{
			Now:  m.now(),
			Date: m.day.Date,
			Prefill: map[string]any{
				"innhold":     entry.Text,
				"beskrivelse": entry.Text,
				"tittel":      conversionTitle(entry.Text),
			},
		})
		inst.Link(i)
		m.day.Schemas = append(m.day.Schemas, inst)
		entry.Converted = true
		entry.KeptAsNote = false
		m.saveLocked()
		m.setUxLocked(daylog.UxState{ActiveOverlay: daylog.OverlaySchemaEdit, SchemaID: inst.ID})
		return applied()
	})
}

func conversionTitle(text string) string {
	if utf8.RuneCountInString(text) <= conversionTitleLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:conversionTitleLen]) + "..."
}
