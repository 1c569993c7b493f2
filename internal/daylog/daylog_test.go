package daylog_test

import (
	"slices"
	"testing"
	"time"

	"punchout/internal/daylog"
)

func TestDraftApplyReconciles(t *testing.T) {
	d := daylog.NewDraft("204481-0014", "2026-10-14", false)
	d.Apply(daylog.DraftUpdate{Fra: "08:30", Til: "10:00", Ressurser: []string{"gravemaskin"}, EntryIndex: 0})
	d.Apply(daylog.DraftUpdate{Fra: "09:00", Til: "14:00", Ressurser: []string{"gravemaskin", "lastebil"}, EntryIndex: 2})
	d.Apply(daylog.DraftUpdate{EntryIndex: 2})

	if d.FraTid != "08:30" {
		t.Fatalf("expected earliest start kept, got %q", d.FraTid)
	}
	if d.TilTid != "14:00" {
		t.Fatalf("expected end overwritten, got %q", d.TilTid)
	}
	if !slices.Equal(d.Ressurser, []string{"gravemaskin", "lastebil"}) {
		t.Fatalf("unexpected resources %v", d.Ressurser)
	}
	if !slices.Equal(d.EntryIndices, []int{0, 2}) {
		t.Fatalf("unexpected entry indices %v", d.EntryIndices)
	}
}

func TestDraftApplyKeepsFirstStart(t *testing.T) {
	d := daylog.NewDraft("1000-1", "2026-10-14", false)
	d.Apply(daylog.DraftUpdate{Til: "12:00", EntryIndex: -1})
	d.Apply(daylog.DraftUpdate{Fra: "10:00", Til: "12:00", EntryIndex: -1})
	d.Apply(daylog.DraftUpdate{Fra: "07:15", Til: "14:00", EntryIndex: -1})
	if d.FraTid != "10:00" {
		t.Fatalf("first start must win, got %q", d.FraTid)
	}
	if d.TilTid != "14:00" {
		t.Fatalf("latest end must win, got %q", d.TilTid)
	}
	if len(d.EntryIndices) != 0 {
		t.Fatalf("negative index must not link, got %v", d.EntryIndices)
	}
}

func TestRebuildDescriptionsUsesNotesOnly(t *testing.T) {
	entries := []daylog.Entry{
		{Type: daylog.TypeNotat, Text: "grøfterens"},
		{Type: daylog.TypeKjoring, Text: "kjører til Moss"},
		{Type: daylog.TypeNotat, Text: "skilt satt opp"},
	}
	d := daylog.NewDraft("1000-1", "2026-10-14", false)
	d.EntryIndices = []int{2, 1, 0, 9}
	d.RebuildDescriptions(entries)
	if !slices.Equal(d.Arbeidsbeskrivelse, []string{"skilt satt opp", "grøfterens"}) {
		t.Fatalf("unexpected descriptions %v", d.Arbeidsbeskrivelse)
	}
}

func TestRecomputeFromWageLines(t *testing.T) {
	d := daylog.NewDraft("HOVED", "2026-10-14", true)
	d.FraTid, d.TilTid = "06:00", "18:00"
	d.Lonnskoder = []daylog.WageLine{
		{Kode: "ORD", Fra: "07:00", Til: "15:00"},
		{Kode: "OT50", Fra: "15:00", Til: "17:30"},
		{Kode: "NATT", Fra: "", Til: ""},
	}
	d.RecomputeFromWageLines()
	if d.FraTid != "07:00" || d.TilTid != "17:30" {
		t.Fatalf("expected 07:00-17:30, got %s-%s", d.FraTid, d.TilTid)
	}
	if got := d.WageHours(); got != 10.5 {
		t.Fatalf("expected 10.5 hours, got %v", got)
	}
}

func TestHoursBetween(t *testing.T) {
	tests := []struct {
		fra, til string
		want     float64
	}{
		{"08:00", "16:30", 8.5},
		{"22:00", "02:00", 4},
		{"08:00", "08:00", 0},
		{"bad", "10:00", 0},
		{"08:00", "25:00", 0},
	}
	for _, tt := range tests {
		if got := daylog.HoursBetween(tt.fra, tt.til); got != tt.want {
			t.Fatalf("HoursBetween(%q, %q) = %v, want %v", tt.fra, tt.til, got, tt.want)
		}
	}
}

func TestPadClockAndIsClock(t *testing.T) {
	if got := daylog.PadClock("8", "05"); got != "08:05" {
		t.Fatalf("PadClock = %q", got)
	}
	if !daylog.IsClock("23:59") || daylog.IsClock("24:00") || daylog.IsClock("8:00") {
		t.Fatal("IsClock mismatch")
	}
}

func TestDayLogCloneIsDeep(t *testing.T) {
	day := daylog.New("2026-10-14", "sess")
	day.Entries = append(day.Entries, daylog.Entry{Time: "08:00", Type: daylog.TypeNotat, Text: "a"})
	draft := day.EnsureDraft("1000-1", false)
	draft.Ressurser = append(draft.Ressurser, "lagsbil")
	day.Schemas = append(day.Schemas, &daylog.SchemaInstance{ID: "s1", Type: "ruh", Fields: map[string]any{"beskrivelse": "x"}, CreatedAt: time.Now()})

	clone := day.Clone()
	clone.Entries[0].Text = "changed"
	clone.Drafts["1000-1"].Ressurser[0] = "changed"
	clone.Schemas[0].Fields["beskrivelse"] = "changed"

	if day.Entries[0].Text != "a" || day.Drafts["1000-1"].Ressurser[0] != "lagsbil" || day.Schemas[0].Fields["beskrivelse"] != "x" {
		t.Fatal("clone shares state with original")
	}
}

func TestEnsureDraftMarksMain(t *testing.T) {
	day := daylog.New("2026-10-14", "sess")
	day.EnsureDraft("HOVED", false)
	main := day.EnsureDraft("HOVED", true)
	if !main.IsMain || main.Dato != "2026-10-14" || main.Status != daylog.DraftOpen {
		t.Fatalf("unexpected main draft %+v", main)
	}
}
