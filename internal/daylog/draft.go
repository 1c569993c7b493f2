package daylog

import (
	"slices"
	"time"
)

// WageLine is a wage-code line item with a time range.
type WageLine struct {
	Kode string `json:"kode"`
	Fra  string `json:"fra"`
	Til  string `json:"til"`
}

// Hours returns the duration of the line in hours.
func (w WageLine) Hours() float64 {
	return HoursBetween(w.Fra, w.Til)
}

// MachineLine is an equipment-hour line item.
type MachineLine struct {
	Maskin string  `json:"maskin"`
	Timer  float64 `json:"timer"`
}

// Draft is the per-ordre time-accounting aggregate.
type Draft struct {
	Ordre              string        `json:"ordre"`
	Dato               string        `json:"dato"`
	FraTid             string        `json:"fra_tid"`
	TilTid             string        `json:"til_tid"`
	Arbeidsbeskrivelse []string      `json:"arbeidsbeskrivelse"`
	Ressurser          []string      `json:"ressurser"`
	Lonnskoder         []WageLine    `json:"lonnskoder"`
	Maskintimer        []MachineLine `json:"maskintimer"`
	Arbeidsvarsling    string        `json:"arbeidsvarsling,omitempty"`
	Behov              []string      `json:"behov,omitempty"`
	EntryIndices       []int         `json:"entryIndices"`
	Status             DraftStatus   `json:"status"`
	IsMain             bool          `json:"isMain,omitempty"`
	ConfirmedAt        *time.Time    `json:"confirmedAt,omitempty"`
}

// NewDraft returns an open draft with empty line lists.
func NewDraft(ordre, dato string, isMain bool) *Draft {
	return &Draft{
		Ordre:              ordre,
		Dato:               dato,
		Arbeidsbeskrivelse: []string{},
		Ressurser:          []string{},
		Lonnskoder:         []WageLine{},
		Maskintimer:        []MachineLine{},
		EntryIndices:       []int{},
		Status:             DraftOpen,
		IsMain:             isMain,
	}
}

// DraftUpdate carries facts extracted from one entry.
type DraftUpdate struct {
	Fra             string
	Til             string
	Ressurser       []string
	Behov           []string
	Arbeidsvarsling string
	// EntryIndex is ignored when negative.
	EntryIndex int
}

// Apply reconciles an extraction into the draft. The first start is kept,
// the end is overwritten, resources are unioned and the entry index
// is appended once.
func (d *Draft) Apply(u DraftUpdate) {
	if u.Fra != "" && d.FraTid == "" {
		d.FraTid = u.Fra
	}
	if u.Til != "" {
		d.TilTid = u.Til
	}
	d.Ressurser = union(d.Ressurser, u.Ressurser)
	if len(u.Behov) > 0 {
		d.Behov = union(d.Behov, u.Behov)
	}
	if u.Arbeidsvarsling != "" {
		d.Arbeidsvarsling = u.Arbeidsvarsling
	}
	if u.EntryIndex >= 0 {
		d.LinkEntry(u.EntryIndex)
	}
}

// LinkEntry appends index to EntryIndices unless already present.
func (d *Draft) LinkEntry(index int) {
	if !slices.Contains(d.EntryIndices, index) {
		d.EntryIndices = append(d.EntryIndices, index)
	}
}

// RebuildDescriptions recomputes Arbeidsbeskrivelse from the linked note
// entries, in index order.
func (d *Draft) RebuildDescriptions(entries []Entry) {
	out := []string{}
	for _, idx := range d.EntryIndices {
		if idx < 0 || idx >= len(entries) {
			continue
		}
		entry := entries[idx]
		if entry.Type != TypeNotat {
			continue
		}
		out = append(out, entry.Text)
	}
	d.Arbeidsbeskrivelse = out
}

// AddDescription appends text unless it is already present.
func (d *Draft) AddDescription(text string) {
	if text == "" || slices.Contains(d.Arbeidsbeskrivelse, text) {
		return
	}
	d.Arbeidsbeskrivelse = append(d.Arbeidsbeskrivelse, text)
}

// RecomputeFromWageLines sets FraTid to the earliest line start and TilTid
// to the latest line end. Lines with invalid times are ignored.
func (d *Draft) RecomputeFromWageLines() {
	var fra, til string
	for _, line := range d.Lonnskoder {
		if IsClock(line.Fra) && (fra == "" || EarlierClock(line.Fra, fra)) {
			fra = line.Fra
		}
		if IsClock(line.Til) && (til == "" || EarlierClock(til, line.Til)) {
			til = line.Til
		}
	}
	if fra != "" {
		d.FraTid = fra
	}
	if til != "" {
		d.TilTid = til
	}
}

// WageHours sums the hours of every wage line.
func (d *Draft) WageHours() float64 {
	var total float64
	for _, line := range d.Lonnskoder {
		total += line.Hours()
	}
	return total
}

// Confirm sets the confirmed status and stamps ConfirmedAt.
func (d *Draft) Confirm(now time.Time) {
	d.Status = DraftConfirmed
	stamp := now
	d.ConfirmedAt = &stamp
}

// Clone returns a deep copy.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Arbeidsbeskrivelse = slices.Clone(d.Arbeidsbeskrivelse)
	out.Ressurser = slices.Clone(d.Ressurser)
	out.Lonnskoder = slices.Clone(d.Lonnskoder)
	out.Maskintimer = slices.Clone(d.Maskintimer)
	out.Behov = slices.Clone(d.Behov)
	out.EntryIndices = slices.Clone(d.EntryIndices)
	if d.ConfirmedAt != nil {
		stamp := *d.ConfirmedAt
		out.ConfirmedAt = &stamp
	}
	return &out
}

func union(base, extra []string) []string {
	if base == nil {
		base = []string{}
	}
	for _, value := range extra {
		if value != "" && !slices.Contains(base, value) {
			base = append(base, value)
		}
	}
	return base
}
