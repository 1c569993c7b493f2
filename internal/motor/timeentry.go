package motor

import (
	"strings"

	"punchout/internal/daylog"
	"punchout/internal/extract"
)

// HoursDetail is one wage line counted by LockedHoursFromTillegg.
type HoursDetail struct {
	Ordre string  `json:"ordre"`
	Kode  string  `json:"kode"`
	Fra   string  `json:"fra"`
	Til   string  `json:"til"`
	Hours float64 `json:"hours"`
}

// LockedHours is the total of confirmed side-order wage lines.
type LockedHours struct {
	TotalHours float64       `json:"totalHours"`
	Details    []HoursDetail `json:"details"`
}

var machineWords = []string{"maskin", "gravemaskin", "hjullaster", "kompressor", "aggregat", "feiemaskin"}

// OpenTimeEntry opens the wage editor for the draft of ordre.
func (m *Motor) OpenTimeEntry(ordre string) Result {
	return m.command("open_time_entry", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		if ordre == m.hovedordre() {
			return m.openMainLocked()
		}
		if m.day.Draft(ordre) == nil {
			return rejected(ReasonNotFound)
		}
		m.setUxLocked(daylog.UxState{ActiveOverlay: daylog.OverlayTimeEntry, DraftOrdre: ordre})
		return applied()
	})
}

// OpenMainTimeEntry opens the wage editor for the main order, creating its
// draft when needed.
func (m *Motor) OpenMainTimeEntry() Result {
	return m.command("open_main_time_entry", func() Result {
		if m.appState != daylog.Active || m.day == nil {
			return rejected(ReasonWrongState)
		}
		return m.openMainLocked()
	})
}

func (m *Motor) openMainLocked() Result {
	m.day.EnsureDraft(m.hovedordre(), true)
	m.saveLocked()
	m.setUxLocked(daylog.UxState{ActiveOverlay: daylog.OverlayMainTimeEntry, DraftOrdre: m.hovedordre()})
	return applied()
}

// timeEntryDraftLocked returns the draft of the open wage editor.
func (m *Motor) timeEntryDraftLocked() *daylog.Draft {
	if m.appState != daylog.Active || m.day == nil {
		return nil
	}
	switch m.ux.ActiveOverlay {
	case daylog.OverlayTimeEntry, daylog.OverlayMainTimeEntry:
		return m.day.Draft(m.ux.DraftOrdre)
	default:
		return nil
	}
}

func (m *Motor) editTimeEntry(fn func(d *daylog.Draft) Result) Result {
	return m.command("edit_time_entry", func() Result {
		d := m.timeEntryDraftLocked()
		if d == nil {
			return rejected(ReasonWrongState)
		}
		res := fn(d)
		if res.Applied {
			m.saveLocked()
		}
		return res
	})
}

// AddLonnskode appends a wage line with the first configured code and the
// draft's current range.
func (m *Motor) AddLonnskode() Result {
	return m.editTimeEntry(func(d *daylog.Draft) Result {
		d.Lonnskoder = append(d.Lonnskoder, daylog.WageLine{Kode: m.defaultWageCode(), Fra: d.FraTid, Til: d.TilTid})
		return applied()
	})
}

// RemoveLonnskode deletes wage line i.
func (m *Motor) RemoveLonnskode(i int) Result {
	return m.editTimeEntry(func(d *daylog.Draft) Result {
		if i < 0 || i >= len(d.Lonnskoder) {
			return rejected(ReasonNotFound)
		}
		d.Lonnskoder = append(d.Lonnskoder[:i], d.Lonnskoder[i+1:]...)
		return applied()
	})
}

// UpdateLonnskode replaces wage line i. Times must be HH:MM or empty.
func (m *Motor) UpdateLonnskode(i int, kode, fra, til string) Result {
	return m.editTimeEntry(func(d *daylog.Draft) Result {
		if i < 0 || i >= len(d.Lonnskoder) {
			return rejected(ReasonNotFound)
		}
		kode = strings.TrimSpace(kode)
		fra, til = strings.TrimSpace(fra), strings.TrimSpace(til)
		if kode == "" || !clockOrEmpty(fra) || !clockOrEmpty(til) {
			return rejected(ReasonInvalidInput)
		}
		d.Lonnskoder[i] = daylog.WageLine{Kode: kode, Fra: fra, Til: til}
		return applied()
	})
}

// AddMaskintime appends an empty machine line.
func (m *Motor) AddMaskintime() Result {
	return m.editTimeEntry(func(d *daylog.Draft) Result {
		d.Maskintimer = append(d.Maskintimer, daylog.MachineLine{})
		return applied()
	})
}

// RemoveMaskintime deletes machine line i.
func (m *Motor) RemoveMaskintime(i int) Result {
	return m.editTimeEntry(func(d *daylog.Draft) Result {
		if i < 0 || i >= len(d.Maskintimer) {
			return rejected(ReasonNotFound)
		}
		d.Maskintimer = append(d.Maskintimer[:i], d.Maskintimer[i+1:]...)
		return applied()
	})
}

// UpdateMaskintime replaces machine line i.
func (m *Motor) UpdateMaskintime(i int, maskin string, timer float64) Result {
	return m.editTimeEntry(func(d *daylog.Draft) Result {
		if i < 0 || i >= len(d.Maskintimer) {
			return rejected(ReasonNotFound)
		}
		maskin = strings.TrimSpace(maskin)
		if maskin == "" || timer < 0 {
			return rejected(ReasonInvalidInput)
		}
		d.Maskintimer[i] = daylog.MachineLine{Maskin: maskin, Timer: timer}
		return applied()
	})
}

// ConfirmTimeEntry confirms the open draft. At least one wage line is
// required, every line needs a code and an HH:MM range, and the draft range
// is recomputed from the lines.
func (m *Motor) ConfirmTimeEntry() Result {
	return m.command("confirm_time_entry", func() Result {
		d := m.timeEntryDraftLocked()
		if d == nil {
			return rejected(ReasonWrongState)
		}
		if len(d.Lonnskoder) == 0 {
			return rejected(ReasonNoWageLines)
		}
		if !completeWageLines(d.Lonnskoder) {
			return rejected(ReasonInvalidInput)
		}
		d.RecomputeFromWageLines()
		d.Confirm(m.now())
		if d.IsMain || d.Ordre == m.hovedordre() {
			m.day.MainTimeHandled = true
			m.day.MainTimeDiscarded = false
			m.day.MainTimeDiscardReason = ""
		}
		m.clearUxLocked()
		m.recomputeReadinessLocked()
		m.saveLocked()
		return applied()
	})
}

// CloseTimeEntry closes the wage editor without confirming.
func (m *Motor) CloseTimeEntry() Result {
	return m.command("close_time_entry", func() Result {
		if m.ux.ActiveOverlay != daylog.OverlayTimeEntry && m.ux.ActiveOverlay != daylog.OverlayMainTimeEntry {
			return rejected(ReasonWrongState)
		}
		m.clearUxLocked()
		return applied()
	})
}

// LockedHoursFromTillegg sums the wage lines of confirmed side orders.
func (m *Motor) LockedHoursFromTillegg() LockedHours {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := LockedHours{Details: []HoursDetail{}}
	if m.day == nil {
		return out
	}
	for _, ordre := range m.day.DraftOrdres() {
		d := m.day.Drafts[ordre]
		if d.IsMain || ordre == m.hovedordre() || d.Status != daylog.DraftConfirmed {
			continue
		}
		for _, line := range d.Lonnskoder {
			hours := line.Hours()
			if hours <= 0 {
				continue
			}
			out.TotalHours += hours
			out.Details = append(out.Details, HoursDetail{Ordre: ordre, Kode: line.Kode, Fra: line.Fra, Til: line.Til, Hours: hours})
		}
	}
	return out
}

// HasMachineRelatedEntries reports whether the day mentions driving or
// machines, in entries or in draft resources.
func (m *Motor) HasMachineRelatedEntries() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.day == nil {
		return false
	}
	for _, e := range m.day.Entries {
		if e.Type == daylog.TypeKjoring || mentionsMachine(e.Text) {
			return true
		}
	}
	for _, d := range m.day.Drafts {
		for _, res := range d.Ressurser {
			if mentionsMachine(res) {
				return true
			}
		}
	}
	return false
}

func mentionsMachine(text string) bool {
	folded := extract.Fold(text)
	for _, word := range machineWords {
		if strings.Contains(folded, word) {
			return true
		}
	}
	return false
}

func completeWageLines(lines []daylog.WageLine) bool {
	for _, line := range lines {
		if strings.TrimSpace(line.Kode) == "" || !daylog.IsClock(line.Fra) || !daylog.IsClock(line.Til) {
			return false
		}
	}
	return true
}

func clockOrEmpty(value string) bool {
	return value == "" || daylog.IsClock(value)
}
