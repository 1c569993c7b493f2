package motor

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"punchout/internal/daylog"
	"punchout/internal/schema"
)

const reportSeparator = "----------------------------------------"

var reportSchemaLabels = map[string]string{
	schema.TypeRUH:             "RUH (Rapport Uønsket Hendelse)",
	schema.TypeVaktlogg:        "Vaktlogg-bekreftelse",
	schema.TypeHendelse:        "Hendelse",
	schema.TypeFriksjonsmaling: "Friksjonsmåling",
	schema.TypeSJAPreDay:       "SJA (før jobb)",
	schema.TypeKjoretoyssjekk:  "Kjøretøysjekk",
}

// BuildHumanReadableReport renders day as the plain-text day report. A nil
// day yields an empty string.
func (m *Motor) BuildHumanReadableReport(ctx context.Context, day *daylog.DayLog) string {
	if day == nil {
		return ""
	}
	deviceID, _ := m.store.DeviceID()
	userID := m.cfg.Admin.UserID
	if userID == "" {
		userID = "Ikke satt"
	}

	var lines []string
	add := func(s ...string) { lines = append(lines, s...) }
	// Headings follow the same Norwegian casing rules as extract.Fold.
	upper := cases.Upper(language.Norwegian)

	add("PUNCHOUT DAGSRAPPORT", "====================", "")
	add("Dato:   "+orUnknown(day.Date), "Ansatt: "+userID, "Enhet:  "+deviceID, "")
	add("START / SLUTT", "Start: "+orUnknown(day.StartTime), "Slutt: "+orUnknown(day.EndTime), "")

	add(reportSeparator, "REGISTRERINGER", reportSeparator, "")
	if len(day.Entries) == 0 {
		add("(ingen registreringer)", "")
	}
	for _, e := range day.Entries {
		typ := string(e.Type)
		if typ == "" {
			typ = string(daylog.TypeNotat)
		}
		clock := e.Time
		if clock == "" {
			clock = "??:??"
		}
		text := e.Text
		if text == "" {
			text = "(tom)"
		}
		add(clock+"  "+upper.String(typ), text)
		switch e.RUHDecision {
		case daylog.RUHYes:
			add("RUH: Bekreftet")
		case daylog.RUHNo:
			add("RUH: Avslått")
		}
		if e.VaktloggConfirmed {
			add("Vaktlogg: Bekreftet")
		}
		if e.VaktloggDiscarded {
			add("Vaktlogg: Forkastet")
		}
		if e.Converted {
			add("Konvertert til skjema")
		}
		if e.KeptAsNote {
			add("Beholdt som notat")
		}
		add("")
	}

	var decided []*daylog.SchemaInstance
	for _, s := range day.Schemas {
		if s.Status == daylog.SchemaConfirmed || s.Status == daylog.SchemaDiscarded {
			decided = append(decided, s)
		}
	}
	if len(decided) > 0 {
		add(reportSeparator, "SKJEMA", reportSeparator, "")
		for _, s := range decided {
			label, ok := reportSchemaLabels[s.Type]
			if !ok {
				label = s.Type
			}
			status := "Forkastet"
			if s.Status == daylog.SchemaConfirmed {
				status = "Bekreftet"
			}
			add(label, "Status: "+status)
			for _, key := range fieldOrder(s) {
				if value := formatFieldValue(s.Fields[key]); value != "" {
					add(key + ": " + value)
				}
			}
			add("")
		}
	}

	var confirmed []*daylog.Draft
	for _, ordre := range day.DraftOrdres() {
		if d := day.Drafts[ordre]; d.Status == daylog.DraftConfirmed {
			confirmed = append(confirmed, d)
		}
	}
	if len(confirmed) > 0 {
		add(reportSeparator, "TIMER", reportSeparator, "")
		for _, d := range confirmed {
			add(orUnknown(d.Ordre), orUnknown(d.FraTid)+" – "+orUnknown(d.TilTid))
			if len(d.Lonnskoder) > 0 {
				add("", "Lønnskoder:")
				for _, line := range d.Lonnskoder {
					add("  " + line.Kode + " " + orUnknown(line.Fra) + " – " + orUnknown(line.Til))
				}
			}
			if len(d.Maskintimer) > 0 {
				add("", "Maskintimer:")
				for _, line := range d.Maskintimer {
					add(fmt.Sprintf("  %s: %s t", line.Maskin, strconv.FormatFloat(line.Timer, 'f', -1, 64)))
				}
			}
			add("")
		}
	}

	add(reportSeparator, "GENERERT: "+m.now().UTC().Format("2006-01-02T15:04:05.000Z"))
	if m.outbox != nil {
		if item, err := m.outbox.FindByDay(ctx, day.Date); err == nil && item != nil {
			add("EXPORT-ID: " + item.ExportID)
		}
	}
	return strings.Join(lines, "\n")
}

// fieldOrder lists definition fields first, then any extra keys sorted.
func fieldOrder(s *daylog.SchemaInstance) []string {
	var keys []string
	seen := map[string]bool{}
	if def, ok := schema.Lookup(s); ok {
		for _, f := range def.Fields {
			if _, present := s.Fields[f.Key]; present {
				keys = append(keys, f.Key)
				seen[f.Key] = true
			}
		}
	}
	var extra []string
	for key := range s.Fields {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

func formatFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func orUnknown(value string) string {
	if value == "" {
		return "?"
	}
	return value
}
