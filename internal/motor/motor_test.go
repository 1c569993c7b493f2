package motor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"punchout/internal/config"
	"punchout/internal/daylog"
	"punchout/internal/logging"
	"punchout/internal/motor"
	"punchout/internal/outbox"
	"punchout/internal/schema"
	"punchout/internal/storage"
	"punchout/internal/testsupport"
	"punchout/internal/voice"
)

var dayStart = time.Date(2026, 10, 14, 7, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	cfg   *config.Config
	clock *testsupport.Clock
	store *storage.Store
	box   *outbox.Store
	m     *motor.Motor
	syncs int
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	h := &harness{t: t, cfg: cfg, clock: testsupport.NewClock(dayStart)}
	h.store = testsupport.MustOpenStorage(t, cfg)
	h.box = testsupport.MustOpenOutbox(t, cfg, h.clock.Now)
	m, err := motor.New(motor.Options{
		Clock:   h.clock,
		Storage: h.store,
		Outbox:  h.box,
		Rules:   cfg,
		Logger:  logging.NewNop(),
		Syncer:  motor.SyncFunc(func() { h.syncs++ }),
	})
	if err != nil {
		t.Fatalf("motor.New: %v", err)
	}
	h.m = m
	return h
}

func (h *harness) apply(what string, res motor.Result) {
	h.t.Helper()
	if !res.Applied {
		h.t.Fatalf("%s rejected: %q", what, res.Reason)
	}
}

func (h *harness) reject(what string, res motor.Result, reason string) {
	h.t.Helper()
	if res.Applied {
		h.t.Fatalf("%s unexpectedly applied", what)
	}
	if reason != "" && res.Reason != reason {
		h.t.Fatalf("%s rejected with %q, want %q", what, res.Reason, reason)
	}
}

func (h *harness) snapshot() motor.Snapshot {
	return h.m.Snapshot(context.Background())
}

func (h *harness) at(hour, minute int) {
	h.clock.Set(time.Date(2026, 10, 14, hour, minute, 0, 0, time.UTC))
}

func itemOfKind(t *testing.T, items []motor.Item, kind string) motor.Item {
	t.Helper()
	for _, it := range items {
		if it.Kind == kind {
			return it
		}
	}
	t.Fatalf("no %s item in %+v", kind, items)
	return motor.Item{}
}

func TestSingleActiveDay(t *testing.T) {
	h := newHarness(t)

	h.apply("start", h.m.StartDay(""))
	h.reject("second start", h.m.StartDay("ny dag"), motor.ReasonWrongState)

	snap := h.snapshot()
	if snap.AppState != daylog.Active || snap.DayLog == nil {
		t.Fatalf("unexpected state %s", snap.AppState)
	}
	if snap.DayLog.Phase != daylog.PhasePre {
		t.Fatalf("expected phase pre, got %s", snap.DayLog.Phase)
	}
	if snap.DayLog.StartTime != "" || snap.DayLog.StartTimeSource != daylog.SourcePending {
		t.Fatalf("start time must wait for confirmation, got %q/%s", snap.DayLog.StartTime, snap.DayLog.StartTimeSource)
	}

	reopened, err := motor.New(motor.Options{Clock: h.clock, Storage: h.store, Rules: h.cfg})
	if err != nil {
		t.Fatalf("motor.New: %v", err)
	}
	if got := reopened.Snapshot(context.Background()); got.DayLog == nil || got.DayLog.SessionID != snap.DayLog.SessionID {
		t.Fatal("expected the persisted day to reload")
	}
}

func TestConfirmStartTime(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))

	h.apply("confirm", h.m.ConfirmStartTime("06:45"))
	h.reject("reconfirm", h.m.ConfirmStartTime("08:00"), motor.ReasonAlreadyConfirmed)

	day := h.snapshot().DayLog
	if day.StartTime != "06:45" || day.StartTimeSource != daylog.SourceUser {
		t.Fatalf("unexpected start %q/%s", day.StartTime, day.StartTimeSource)
	}
}

func TestRequiredPreDaySchemas(t *testing.T) {
	h := newHarness(t, testsupport.WithRequiredSchemas(schema.TypeSJAPreDay))

	h.apply("start", h.m.StartDay("kjøretøysjekk bil 1234567"))
	day := h.snapshot().DayLog
	if len(day.Schemas) != 2 {
		t.Fatalf("expected vehicle check and required SJA, got %d schemas", len(day.Schemas))
	}
	check := day.SchemasOfType(schema.TypeKjoretoyssjekk)
	if len(check) != 1 || check[0].Fields["kjoretoy"] != "1234567" {
		t.Fatalf("expected prefilled vehicle check, got %+v", check)
	}
	sja := day.SchemasOfType(schema.TypeSJAPreDay)
	if len(sja) != 1 {
		t.Fatal("expected required SJA instance")
	}
	for _, key := range []string{"konsekvens", "tiltak"} {
		if sja[0].Fields[key] != nil {
			t.Fatalf("%s must never be auto-filled", key)
		}
	}

	if !h.m.IsSchemaRequired(schema.TypeSJAPreDay) || h.m.IsSchemaRequired(schema.TypeKjoretoyssjekk) {
		t.Fatal("unexpected required flags")
	}
	if pending := h.m.RequiredSchemasNotConfirmed(); len(pending) != 1 || pending[0].ID != sja[0].ID {
		t.Fatalf("unexpected pending required schemas %+v", pending)
	}
	h.reject("continue", h.m.ContinueFromPreDay(), motor.ReasonRequiredPending)
	h.reject("skip required", h.m.SkipPreDaySchema(sja[0].ID), motor.ReasonRequiredSchema)
	h.reject("defer required", h.m.DeferPreDaySchema(sja[0].ID), motor.ReasonRequiredSchema)
	h.apply("skip all", h.m.SkipAllPreDay())

	h.apply("force", h.m.ForceStartDay())
	day = h.snapshot().DayLog
	if day.Phase != daylog.PhaseActive {
		t.Fatalf("expected phase active, got %s", day.Phase)
	}
	forced := day.Schema(sja[0].ID)
	if forced.Status != daylog.SchemaForceSkipped || forced.ForceSkippedAt == nil {
		t.Fatalf("expected force_skipped SJA, got %s", forced.Status)
	}
	if got := day.Schema(check[0].ID).Status; got != daylog.SchemaSkipped {
		t.Fatalf("expected optional check skipped, got %s", got)
	}

	h.apply("entry", h.m.SubmitEntry("Brøyter E6", ""))
	h.at(15, 0)
	h.apply("end", h.m.EndDay())
	item := itemOfKind(t, h.m.UnresolvedItems(), motor.KindSchema)
	if item.ID != "schema_"+sja[0].ID {
		t.Fatalf("expected forced SJA to resurface, got %s", item.ID)
	}
	h.reject("discard forced", h.m.ResolveItem(item.ID, motor.ActionDiscard, motor.ResolveData{}), motor.ReasonForceSkipped)
	h.reject("confirm incomplete", h.m.ResolveItem(item.ID, motor.ActionConfirm, motor.ResolveData{}), motor.ReasonMissingFields)
	h.apply("confirm forced", h.m.ResolveItem(item.ID, motor.ActionConfirm, motor.ResolveData{Fields: map[string]string{
		"oppgave":    "Brøyting",
		"konsekvens": "Påkjørsel",
		"tiltak":     "Skilting",
		"godkjent":   "ja",
	}}))
}

func TestSaveSchemaEditConfirmsCompletePreDayForm(t *testing.T) {
	h := newHarness(t, testsupport.WithRequiredSchemas(schema.TypeKjoretoyssjekk))
	h.apply("start", h.m.StartDay(""))
	check := h.snapshot().DayLog.SchemasOfType(schema.TypeKjoretoyssjekk)[0]

	h.apply("open", h.m.OpenSchemaEdit(check.ID))
	if ux := h.snapshot().UxState; ux.ActiveOverlay != daylog.OverlaySchemaEdit || ux.SchemaID != check.ID {
		t.Fatalf("unexpected ux %+v", ux)
	}
	h.reject("unknown field", h.m.SetSchemaField("ukjent", "x"), motor.ReasonInvalidInput)
	h.apply("save incomplete", h.m.SaveSchemaEdit())
	if got := h.snapshot().DayLog.Schema(check.ID).Status; got != daylog.SchemaDraft {
		t.Fatalf("incomplete form must stay draft, got %s", got)
	}

	h.apply("reopen", h.m.OpenSchemaEdit(check.ID))
	h.apply("set vehicle", h.m.SetSchemaField("kjoretoy", "AB 12345"))
	h.apply("set lights", h.m.SetSchemaField("lys_ok", "ja"))
	h.apply("save", h.m.SaveSchemaEdit())

	snap := h.snapshot()
	saved := snap.DayLog.Schema(check.ID)
	if saved.Status != daylog.SchemaConfirmed || saved.Fields["lys_ok"] != true {
		t.Fatalf("expected confirmed check, got %s %+v", saved.Status, saved.Fields)
	}
	if !snap.UxState.IsZero() {
		t.Fatal("expected overlay cleared")
	}
	h.apply("continue", h.m.ContinueFromPreDay())
}

func TestSubmitEntryExtractionScenario(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))

	h.apply("submit", h.m.SubmitEntry("ordre 204481-0014 fra 08.30 til 14.00 med gravemaskin", ""))
	day := h.snapshot().DayLog
	if len(day.Entries) != 1 || day.Entries[0].Type != daylog.TypeNotat || day.Entries[0].Time != "07:00" {
		t.Fatalf("expected committed note, got %+v", day.Entries)
	}
	if day.Phase != daylog.PhaseActive || day.StartTime != "07:00" || day.StartTimeSource != daylog.SourceAuto {
		t.Fatalf("first entry must start work, got %s %q %s", day.Phase, day.StartTime, day.StartTimeSource)
	}
	if len(day.Drafts) != 0 {
		t.Fatal("orchestration must be deferred")
	}
	if h.m.Pending() != 1 {
		t.Fatalf("expected one queued task, got %d", h.m.Pending())
	}

	if ran := h.m.Flush(); ran != 1 {
		t.Fatalf("expected one task to run, got %d", ran)
	}
	draft := h.snapshot().DayLog.Draft("204481-0014")
	if draft == nil {
		t.Fatal("expected draft 204481-0014")
	}
	if draft.FraTid != "08:30" || draft.TilTid != "14:00" {
		t.Fatalf("unexpected range %s-%s", draft.FraTid, draft.TilTid)
	}
	if !containsString(draft.Ressurser, "gravemaskin") {
		t.Fatalf("expected gravemaskin in %v", draft.Ressurser)
	}
	if len(draft.Arbeidsbeskrivelse) != 1 || len(draft.EntryIndices) != 1 || draft.EntryIndices[0] != 0 {
		t.Fatalf("expected the entry linked, got %+v", draft)
	}

	h.reject("blank", h.m.SubmitEntry("   ", ""), motor.ReasonInvalidInput)
}

func TestDeferredTaskDroppedAfterDiscard(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("submit", h.m.SubmitEntry("ordre 4100-12 07:00 til 09:00", ""))

	h.clock.Advance(24 * time.Hour)
	if !h.m.IsStaleDay() {
		t.Fatal("expected stale day")
	}
	h.apply("discard", h.m.DiscardStaleDay())
	h.apply("new start", h.m.StartDay(""))

	if ran := h.m.Flush(); ran != 0 {
		t.Fatalf("stale task must be dropped, %d ran", ran)
	}
	if day := h.snapshot().DayLog; len(day.Drafts) != 0 || len(day.Entries) != 0 {
		t.Fatalf("new day was touched by old work: %+v", day.Drafts)
	}
}

func TestContinueStaleDay(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.reject("continue fresh", h.m.ContinueStaleDay(), motor.ReasonWrongState)

	h.clock.Advance(24 * time.Hour)
	if !h.snapshot().IsStaleDay {
		t.Fatal("expected stale notice")
	}
	h.apply("continue", h.m.ContinueStaleDay())
	if h.m.IsStaleDay() {
		t.Fatal("expected notice acknowledged")
	}
}

func TestLockGuardWithOpenSafetyForm(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("submit", h.m.SubmitEntry("Nestenulykke ved kryss", daylog.TypeHendelse))
	h.m.Flush()

	ruh := h.snapshot().DayLog.SchemasOfType(schema.TypeRUH)
	if len(ruh) != 1 {
		t.Fatalf("expected one RUH instance, got %d", len(ruh))
	}
	if ruh[0].Fields["beskrivelse"] != "Nestenulykke ved kryss" || ruh[0].Fields["arsak"] != nil || ruh[0].Fields["tiltak"] != nil {
		t.Fatalf("unexpected RUH fields %+v", ruh[0].Fields)
	}

	h.reject("lock before end", h.m.LockDay(context.Background()), motor.ReasonWrongState)
	h.at(15, 0)
	h.apply("end", h.m.EndDay())
	h.reject("lock", h.m.LockDay(context.Background()), motor.ReasonUnresolvedItems)

	snap := h.snapshot()
	if snap.AppState != daylog.Active || snap.DayLog.Status != daylog.Active {
		t.Fatalf("lock guard changed state: %s/%s", snap.AppState, snap.DayLog.Status)
	}
	if snap.ReadyToLock || snap.UnresolvedCount == 0 {
		t.Fatalf("expected unresolved items, got %d", snap.UnresolvedCount)
	}
	h.reject("submit while ending", h.m.SubmitEntry("sent notat", ""), motor.ReasonWrongState)
}

func TestMainTimeWageCodeGate(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("confirm start", h.m.ConfirmStartTime("07:00"))
	h.apply("submit", h.m.SubmitEntry("Brøyting hele dagen", ""))
	h.at(15, 30)
	h.apply("end", h.m.EndDay())

	main := h.snapshot().DayLog.Draft("HOVED")
	if main == nil || main.FraTid != "07:00" || main.TilTid != "15:30" || len(main.Lonnskoder) != 0 {
		t.Fatalf("expected grov-filled main draft without wage codes, got %+v", main)
	}

	h.reject("confirm without lines", h.m.ResolveItem("main_time", motor.ActionConfirm, motor.ResolveData{}), motor.ReasonNoWageLines)
	if got := h.snapshot().DayLog.Draft("HOVED"); got.Status != daylog.DraftOpen || h.snapshot().DayLog.MainTimeHandled {
		t.Fatal("rejected confirm must not change state")
	}

	h.apply("confirm", h.m.ResolveItem("main_time", motor.ActionConfirm, motor.ResolveData{
		Lonnskoder: []daylog.WageLine{
			{Kode: "ORD", Fra: "06:45", Til: "12:00"},
			{Kode: "OT50", Fra: "12:00", Til: "16:15"},
		},
	}))
	day := h.snapshot().DayLog
	main = day.Draft("HOVED")
	if main.Status != daylog.DraftConfirmed || main.FraTid != "06:45" || main.TilTid != "16:15" {
		t.Fatalf("expected recomputed confirmed main draft, got %s %s-%s", main.Status, main.FraTid, main.TilTid)
	}
	if !day.MainTimeHandled || !day.ReadyToLock {
		t.Fatal("expected main time handled and day ready")
	}
}

func TestReadinessMatchesLock(t *testing.T) {
	cases := []struct {
		name  string
		setup func(h *harness)
		check func(t *testing.T, day *daylog.DayLog)
	}{
		{
			name: "main time confirmed before end of day",
			setup: func(h *harness) {
				h.apply("open main", h.m.OpenMainTimeEntry())
				h.apply("add", h.m.AddLonnskode())
				h.apply("update", h.m.UpdateLonnskode(0, "ORD", "07:00", "15:00"))
				h.apply("confirm main", h.m.ConfirmTimeEntry())
				h.at(15, 30)
				h.apply("end", h.m.EndDay())
			},
			check: func(t *testing.T, day *daylog.DayLog) {
				main := day.Draft("HOVED")
				if main.Status != daylog.DraftConfirmed || main.FraTid != "07:00" || main.TilTid != "15:00" {
					t.Fatalf("end of day must keep the confirmed main time, got %s %s-%s", main.Status, main.FraTid, main.TilTid)
				}
				if !day.MainTimeHandled {
					t.Fatal("confirmed main time must stay handled")
				}
			},
		},
		{
			name: "main time confirmed in the resolver",
			setup: func(h *harness) {
				h.at(15, 30)
				h.apply("end", h.m.EndDay())
				h.apply("main", h.m.ResolveItem("main_time", motor.ActionConfirm, motor.ResolveData{
					Lonnskoder: []daylog.WageLine{{Kode: "ORD", Fra: "07:00", Til: "15:30"}},
				}))
			},
		},
		{
			name: "main time discarded in the resolver",
			setup: func(h *harness) {
				h.at(15, 30)
				h.apply("end", h.m.EndDay())
				h.apply("main", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{Reason: daylog.ReasonNoWorkDone}))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.apply("start", h.m.StartDay(""))
			h.apply("confirm start", h.m.ConfirmStartTime("07:00"))
			h.apply("submit", h.m.SubmitEntry("Brøyting hele dagen", ""))
			h.m.Flush()
			tc.setup(h)

			snap := h.snapshot()
			items := h.m.UnresolvedItems()
			if !snap.ReadyToLock || len(items) != 0 {
				t.Fatalf("expected ready with no items, got ready=%v items=%+v", snap.ReadyToLock, items)
			}
			if tc.check != nil {
				tc.check(t, snap.DayLog)
			}
			h.apply("lock", h.m.LockDay(context.Background()))
		})
	}
}

func TestDraftKeepsFirstStartAcrossEntries(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("first", h.m.SubmitEntry("ordre 204481-0014 fra 10:00 til 12:00", ""))
	h.m.Flush()
	h.apply("second", h.m.SubmitEntry("ordre 204481-0014 fra 08:00 til 14:00", ""))
	h.m.Flush()

	d := h.snapshot().DayLog.Draft("204481-0014")
	if d.FraTid != "10:00" || d.TilTid != "14:00" {
		t.Fatalf("expected 10:00-14:00, got %s-%s", d.FraTid, d.TilTid)
	}
	if len(d.EntryIndices) != 2 {
		t.Fatalf("expected both entries linked, got %v", d.EntryIndices)
	}
}

func TestResolveOnlyTouchesListedItems(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("vaktlogg", h.m.SubmitEntry("Vaktlogg: sperret vei ved bommen", daylog.TypeVaktlogg))
	h.apply("ordre", h.m.SubmitEntry("ordre 4100-12 07:00 til 09:00 strøing", ""))
	h.m.Flush()
	h.at(15, 30)
	h.apply("end", h.m.EndDay())

	vakt := itemOfKind(t, h.m.UnresolvedItems(), motor.KindSchema)
	vaktID, _ := vakt.Data["schemaId"].(string)
	h.apply("vaktlogg confirm", h.m.ResolveItem(vakt.ID, motor.ActionConfirm, motor.ResolveData{}))
	h.apply("main", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{Reason: daylog.ReasonLoggedElsewhere}))
	rev := h.m.Revision()

	cases := []struct {
		name   string
		id     string
		action string
	}{
		{"discard confirmed side draft", "draft_4100-12", motor.ActionDiscard},
		{"confirm confirmed side draft", "draft_4100-12", motor.ActionConfirm},
		{"confirm confirmed schema", vakt.ID, motor.ActionConfirm},
		{"discard confirmed schema", vakt.ID, motor.ActionDiscard},
		{"discard handled main time", "main_time", motor.ActionDiscard},
		{"confirm handled main time", "main_time", motor.ActionConfirm},
	}
	for _, tc := range cases {
		h.reject(tc.name, h.m.ResolveItem(tc.id, tc.action, motor.ResolveData{
			Reason:     daylog.ReasonNoWorkDone,
			Lonnskoder: []daylog.WageLine{{Kode: "ORD", Fra: "07:00", Til: "15:30"}},
		}), motor.ReasonNotFound)
	}

	if got := h.m.Revision(); got != rev {
		t.Fatalf("rejected resolutions must not bump the revision: %d -> %d", rev, got)
	}
	day := h.snapshot().DayLog
	if got := day.Draft("4100-12").Status; got != daylog.DraftConfirmed {
		t.Fatalf("side draft changed to %s", got)
	}
	if got := day.Schema(vaktID).Status; got != daylog.SchemaConfirmed || !day.Entries[0].VaktloggConfirmed || day.Entries[0].VaktloggDiscarded {
		t.Fatalf("vaktlogg decision changed: %s", got)
	}
	if day.Draft("HOVED").Status != daylog.DraftDiscarded || day.MainTimeDiscardReason != daylog.ReasonLoggedElsewhere {
		t.Fatalf("main time decision changed: %s %q", day.Draft("HOVED").Status, day.MainTimeDiscardReason)
	}
	if !day.ReadyToLock {
		t.Fatal("expected day to stay ready")
	}
}

func TestConfirmTimeEntryNeedsCompleteLines(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("open", h.m.OpenMainTimeEntry())
	h.apply("add", h.m.AddLonnskode())
	if line := h.snapshot().DayLog.Draft("HOVED").Lonnskoder[0]; line.Fra != "" || line.Til != "" {
		t.Fatalf("expected a line without times, got %+v", line)
	}
	h.reject("confirm without times", h.m.ConfirmTimeEntry(), motor.ReasonInvalidInput)
	if day := h.snapshot().DayLog; day.Draft("HOVED").Status != daylog.DraftOpen || day.MainTimeHandled {
		t.Fatal("rejected confirm must leave the draft open")
	}
	h.apply("update", h.m.UpdateLonnskode(0, "ORD", "07:00", ""))
	h.reject("confirm without end", h.m.ConfirmTimeEntry(), motor.ReasonInvalidInput)
	h.apply("update", h.m.UpdateLonnskode(0, "ORD", "07:00", "15:00"))
	h.apply("confirm", h.m.ConfirmTimeEntry())
}

func TestMainTimeDiscardNeedsReason(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("end", h.m.EndDay())

	h.reject("no reason", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{}), motor.ReasonInvalidReason)
	h.reject("bad reason", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{Reason: "sick"}), motor.ReasonInvalidReason)
	h.apply("discard", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{Reason: daylog.ReasonLoggedElsewhere}))

	day := h.snapshot().DayLog
	if !day.MainTimeDiscarded || day.MainTimeDiscardReason != daylog.ReasonLoggedElsewhere || !day.MainTimeHandled {
		t.Fatalf("unexpected main time state %+v", day)
	}
	h.reject("unknown action", h.m.ResolveItem("main_time", "maybe", motor.ResolveData{}), motor.ReasonInvalidAction)
	h.reject("unknown id", h.m.ResolveItem("draft_9999-1", motor.ActionConfirm, motor.ResolveData{}), motor.ReasonNotFound)
}

func TestResolverCompletenessAndExport(t *testing.T) {
	h := newHarness(t, testsupport.WithExportEndpoint("https://export.example.com/punchout"))
	ctx := context.Background()

	h.apply("start", h.m.StartDay(""))
	h.apply("vaktlogg", h.m.SubmitEntry("Vaktlogg: sperret vei ved bommen", daylog.TypeVaktlogg))
	h.apply("friksjon", h.m.SubmitEntry("friksjon 0,35 på E6", daylog.TypeFriksjon))
	h.apply("ordre", h.m.SubmitEntry("ordre 4100-12 07:00 til 09:00 strøing", ""))
	if ran := h.m.Flush(); ran != 3 {
		t.Fatalf("expected three tasks, got %d", ran)
	}
	friction := h.snapshot().DayLog.SchemasOfType(schema.TypeFriksjonsmaling)
	if len(friction) != 1 || friction[0].Fields["verdi"] != 0.35 || friction[0].Fields["sted"] != nil {
		t.Fatalf("unexpected friction draft %+v", friction)
	}

	h.at(15, 30)
	h.apply("end", h.m.EndDay())
	day := h.snapshot().DayLog
	if got := day.Draft("4100-12").Status; got != daylog.DraftConfirmed {
		t.Fatalf("described side order must auto-confirm, got %s", got)
	}
	if !day.Entries[2].KeptAsNote {
		t.Fatal("expected free-text note kept")
	}

	items := h.m.UnresolvedItems()
	if len(items) != 3 {
		t.Fatalf("expected vaktlogg, friction and main time, got %+v", items)
	}
	checkReadiness := func() {
		t.Helper()
		snap := h.snapshot()
		if snap.ReadyToLock != (len(h.m.UnresolvedItems()) == 0) {
			t.Fatalf("readyToLock %v disagrees with %d unresolved items", snap.ReadyToLock, snap.UnresolvedCount)
		}
	}
	checkReadiness()

	vakt := itemOfKind(t, items, motor.KindSchema)
	h.apply("vaktlogg confirm", h.m.ResolveItem(vakt.ID, motor.ActionConfirm, motor.ResolveData{}))
	checkReadiness()
	if !h.snapshot().DayLog.Entries[0].VaktloggConfirmed {
		t.Fatal("expected decision propagated to entry")
	}

	fr := itemOfKind(t, items, motor.KindFriksjon)
	h.reject("friction without place", h.m.ResolveItem(fr.ID, motor.ActionConfirm, motor.ResolveData{}), motor.ReasonMissingFields)
	h.apply("friction", h.m.ResolveItem(fr.ID, motor.ActionConfirm, motor.ResolveData{Fields: map[string]string{"sted": "E6 Soknedal"}}))
	checkReadiness()

	h.reject("lock with main open", h.m.LockDay(ctx), motor.ReasonUnresolvedItems)
	h.apply("main", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{Reason: daylog.ReasonNoWorkDone}))
	checkReadiness()
	if !h.snapshot().ReadyToLock {
		t.Fatal("expected day ready to lock")
	}

	h.apply("lock", h.m.LockDay(ctx))
	snap := h.snapshot()
	if snap.AppState != daylog.Locked || snap.DayLog.ExportID == "" {
		t.Fatalf("expected locked day with export id, got %s %q", snap.AppState, snap.DayLog.ExportID)
	}
	if h.syncs != 1 {
		t.Fatalf("expected one sync nudge, got %d", h.syncs)
	}
	if snap.ExportStatus != motor.ExportSending || snap.OutboxStatus.Pending != 1 {
		t.Fatalf("unexpected export status %s %+v", snap.ExportStatus, snap.OutboxStatus)
	}

	h.reject("second lock", h.m.LockDay(ctx), motor.ReasonWrongState)
	if count, err := h.box.Count(ctx); err != nil || count != 1 {
		t.Fatalf("expected exactly one queued export, got %d (%v)", count, err)
	}
	history := h.m.History()
	if len(history) != 1 || history[0].ExportID != snap.DayLog.ExportID {
		t.Fatalf("expected locked day in history, got %d", len(history))
	}

	report := h.m.BuildHumanReadableReport(ctx, history[0])
	for _, want := range []string{
		"PUNCHOUT DAGSRAPPORT",
		"Ansatt: test-user",
		"07:00  VAKTLOGG",
		"Vaktlogg: Bekreftet",
		"Beholdt som notat",
		"Vaktlogg-bekreftelse",
		"sted: E6 Soknedal",
		"4100-12",
		"EXPORT-ID: " + snap.DayLog.ExportID,
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}

	h.apply("new day", h.m.StartNewDay())
	if snap := h.snapshot(); snap.AppState != daylog.NotStarted || snap.DayLog != nil {
		t.Fatal("expected a clean slate")
	}
}

func TestLockWithoutUserSkipsExport(t *testing.T) {
	h := newHarness(t, testsupport.WithExportEndpoint("https://export.example.com"), testsupport.WithUserID(""))
	h.apply("start", h.m.StartDay(""))
	h.apply("end", h.m.EndDay())
	h.apply("main", h.m.ResolveItem("main_time", motor.ActionDiscard, motor.ResolveData{Reason: daylog.ReasonNoWorkDone}))
	h.apply("lock", h.m.LockDay(context.Background()))

	snap := h.snapshot()
	if snap.DayLog.ExportID != "" || h.syncs != 0 || snap.ExportStatus != motor.ExportNoData {
		t.Fatalf("expected no export, got %q %s", snap.DayLog.ExportID, snap.ExportStatus)
	}
}

func TestConfirmStructuredEntry(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))

	if h.m.ParseEntry("bare en tanke") != nil {
		t.Fatal("expected no parse without ordre")
	}
	parsed := h.m.ParseEntry("ordre 4200-1 fra 10:00 til 12:30 med hjullaster")
	if parsed == nil || parsed.Ordre != "4200-1" || parsed.Fra != "10:00" || parsed.Til != "12:30" {
		t.Fatalf("unexpected parse %+v", parsed)
	}
	if len(h.snapshot().DayLog.Entries) != 0 {
		t.Fatal("parse must not persist")
	}

	h.apply("confirm", h.m.ConfirmStructuredEntry(parsed.RawText, "", parsed))
	day := h.snapshot().DayLog
	entry := day.Entries[0]
	if !entry.Verified || !entry.LockedByUser {
		t.Fatalf("expected verified entry, got %+v", entry)
	}
	draft := day.Draft("4200-1")
	if draft.Status != daylog.DraftConfirmed || len(draft.Lonnskoder) != 1 || draft.Lonnskoder[0].Kode != "ORD" {
		t.Fatalf("unexpected draft %+v", draft)
	}

	hours := h.m.LockedHoursFromTillegg()
	if hours.TotalHours != 2.5 || len(hours.Details) != 1 {
		t.Fatalf("unexpected locked hours %+v", hours)
	}
	if !h.m.HasMachineRelatedEntries() {
		t.Fatal("expected machine mention")
	}

	h.apply("end", h.m.EndDay())
	for _, it := range h.m.UnresolvedItems() {
		if it.ID == "draft_4200-1" {
			t.Fatal("verified drafts are excluded from Håndrens")
		}
	}
}

func TestMainTimeEntryOverlay(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("confirm start", h.m.ConfirmStartTime("07:00"))
	h.at(15, 30)
	h.apply("end", h.m.EndDay())

	h.reject("add without overlay", h.m.AddLonnskode(), motor.ReasonWrongState)
	h.apply("open", h.m.OpenMainTimeEntry())
	h.reject("confirm empty", h.m.ConfirmTimeEntry(), motor.ReasonNoWageLines)
	h.apply("add", h.m.AddLonnskode())
	h.reject("bad time", h.m.UpdateLonnskode(0, "ORD", "7", "15:00"), motor.ReasonInvalidInput)
	h.apply("update", h.m.UpdateLonnskode(0, "ORD", "07:00", "15:00"))
	h.apply("add machine", h.m.AddMaskintime())
	h.apply("update machine", h.m.UpdateMaskintime(0, "hjullaster", 2.5))
	h.apply("confirm", h.m.ConfirmTimeEntry())

	snap := h.snapshot()
	main := snap.DayLog.Draft("HOVED")
	if main.Status != daylog.DraftConfirmed || main.FraTid != "07:00" || main.TilTid != "15:00" {
		t.Fatalf("unexpected main draft %+v", main)
	}
	if len(main.Maskintimer) != 1 || main.Maskintimer[0].Timer != 2.5 {
		t.Fatalf("unexpected machine lines %+v", main.Maskintimer)
	}
	if !snap.DayLog.MainTimeHandled || !snap.UxState.IsZero() || !snap.ReadyToLock {
		t.Fatal("expected main time handled and overlay closed")
	}
}

func TestEditEntryRebuildsDescriptions(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	h.apply("submit", h.m.SubmitEntry("ordre 4100-12 grøfterensk", ""))
	h.m.Flush()

	h.reject("save without open", h.m.SaveEdit("x"), motor.ReasonWrongState)
	h.apply("open", h.m.OpenEdit(0))
	if got := h.snapshot().EditingIndex; got != 0 {
		t.Fatalf("expected editing index 0, got %d", got)
	}
	h.apply("save", h.m.SaveEdit("ordre 4100-12 grøfterensk og kantklipp"))

	snap := h.snapshot()
	if snap.EditingIndex != -1 {
		t.Fatal("expected editing cleared")
	}
	if d := snap.DayLog.Draft("4100-12"); len(d.Arbeidsbeskrivelse) != 1 || d.Arbeidsbeskrivelse[0] != "ordre 4100-12 grøfterensk og kantklipp" {
		t.Fatalf("descriptions not rebuilt: %v", d.Arbeidsbeskrivelse)
	}
}

func TestConvertNote(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))
	text := "Foreslår at vi bytter til LED-lys på alle brøytebilene før jul i år"
	h.apply("submit", h.m.SubmitEntry(text, ""))

	h.reject("bad target", h.m.ConvertNote(0, "ruh"), motor.ReasonInvalidInput)
	h.apply("convert", h.m.ConvertNote(0, schema.TypeForbedring))
	h.reject("convert twice", h.m.ConvertNote(0, schema.TypeHuskelapp), motor.ReasonNotFound)

	snap := h.snapshot()
	forms := snap.DayLog.SchemasOfType(schema.TypeForbedring)
	if len(forms) != 1 || forms[0].Origin != daylog.OriginConversion {
		t.Fatalf("expected conversion form, got %+v", forms)
	}
	title, _ := forms[0].Fields["tittel"].(string)
	if !strings.HasSuffix(title, "...") || len([]rune(title)) != 53 {
		t.Fatalf("unexpected title %q", title)
	}
	if !snap.DayLog.Entries[0].Converted || snap.UxState.SchemaID != forms[0].ID {
		t.Fatal("expected entry converted and form opened")
	}
}

func TestExternalSystemTasks(t *testing.T) {
	h := newHarness(t)
	h.apply("start", h.m.StartDay(""))

	link, res := h.m.OpenExternalSystem("elrapp", map[string]string{"ordre": "4100 12"})
	h.apply("open", res)
	if link != "https://elrapp.example.com?ordre=4100+12" {
		t.Fatalf("unexpected link %q", link)
	}
	snap := h.snapshot()
	if snap.UxState.ActiveOverlay != daylog.OverlayExternalInstruction || snap.UxState.ExternalInstructions == "" {
		t.Fatalf("unexpected ux %+v", snap.UxState)
	}
	if _, res := h.m.OpenExternalSystem("ukjent", nil); res.Applied {
		t.Fatal("unknown system must be rejected")
	}

	h.apply("confirm", h.m.ConfirmExternalTask("elrapp"))
	h.reject("confirm again", h.m.ConfirmExternalTask("elrapp"), motor.ReasonNotFound)
	tasks := h.snapshot().DayLog.ExternalTasks
	if len(tasks) != 1 || !tasks[0].ConfirmedByUser || tasks[0].ConfirmedAt == nil {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestRevisionAndSubscribers(t *testing.T) {
	h := newHarness(t)
	var seen []uint64
	cancel := h.m.Subscribe(func(rev uint64) { seen = append(seen, rev) })

	h.apply("start", h.m.StartDay(""))
	h.reject("restart", h.m.StartDay(""), "")
	_ = h.snapshot()
	_ = h.m.UnresolvedItems()
	if len(seen) != 1 || seen[0] != 1 || h.m.Revision() != 1 {
		t.Fatalf("expected a single bump, got %v", seen)
	}

	cancel()
	h.apply("entry", h.m.SubmitEntry("notat", ""))
	if len(seen) != 1 || h.m.Revision() != 2 {
		t.Fatalf("cancelled subscriber notified: %v", seen)
	}
}

func TestVoiceTranscriptsDriveTheDay(t *testing.T) {
	h := newHarness(t)
	if h.snapshot().VoiceSupported {
		t.Fatal("voice must be unsupported without a recognizer")
	}
	lines := voice.NewLineRecognizer(strings.NewReader("Startet dag\nSkrev vaktlogg om stengt vei\n"))
	lines.Attach(h.m.Voice())

	h.m.ToggleVoice()
	if snap := h.snapshot(); snap.AppState != daylog.Active {
		t.Fatalf("first transcript must start the day, got %s", snap.AppState)
	}
	h.m.ToggleVoice()
	day := h.snapshot().DayLog
	if len(day.Entries) != 1 || day.Entries[0].Type != daylog.TypeVaktlogg {
		t.Fatalf("expected classified entry, got %+v", day.Entries)
	}
	if snap := h.snapshot(); snap.IsListening || !snap.VoiceSupported {
		t.Fatalf("unexpected voice state %+v", snap)
	}
}

type corruptStorage struct {
	*storage.Store
}

func (corruptStorage) LoadCurrent() (storage.CurrentDay, *storage.StorageError) {
	return storage.CurrentDay{AppState: daylog.NotStarted}, &storage.StorageError{
		Type:    storage.ErrorCurrent,
		Message: "Kunne ikke lese aktiv dag",
		Raw:     "{not json",
	}
}

func TestStorageErrorRecovery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := corruptStorage{testsupport.MustOpenStorage(t, cfg)}

	m, err := motor.New(motor.Options{Storage: store, Rules: cfg, Clock: testsupport.NewClock(dayStart)})
	if err != nil {
		t.Fatalf("motor.New: %v", err)
	}
	if snap := m.Snapshot(context.Background()); snap.StorageError == nil || snap.StorageError.Raw != "{not json" {
		t.Fatalf("expected surfaced storage error, got %+v", snap.StorageError)
	}
	if res := m.TryIgnoreError(); !res.Applied {
		t.Fatalf("ignore rejected: %s", res.Reason)
	}
	if m.Snapshot(context.Background()).StorageError != nil {
		t.Fatal("expected error cleared")
	}
	if res := m.ResetCurrentDayOnly(); !res.Applied {
		t.Fatalf("reset rejected: %s", res.Reason)
	}
	if res := m.StartDay(""); !res.Applied {
		t.Fatalf("start after recovery rejected: %s", res.Reason)
	}
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
