package schema

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"punchout/internal/daylog"
	"punchout/internal/extract"
)

// InstanceContext carries the values available when an instance is created.
type InstanceContext struct {
	Now     time.Time
	Date    string
	Ordre   string
	Vehicle string
	// Prefill sets field values before never-auto-fill fields are cleared.
	Prefill map[string]any
}

// NewInstance creates a draft instance of def. Date fields get ctx.Date and
// the tidspunkt field gets the current time. Never-auto-fill fields are
// cleared last, whatever the context supplied.
func NewInstance(def Definition, origin daylog.Origin, ctx InstanceContext) *daylog.SchemaInstance {
	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}
	date := ctx.Date
	if date == "" {
		date = daylog.FormatDate(now)
	}

	fields := make(map[string]any, len(def.Fields))
	for _, f := range def.Fields {
		switch {
		case f.Type == FieldDate:
			fields[f.Key] = date
		case f.Type == FieldTime && f.Key == "tidspunkt":
			fields[f.Key] = daylog.FormatClock(now)
		default:
			fields[f.Key] = nil
		}
	}

	switch def.Type {
	case TypeSJAPreDay:
		if ctx.Ordre != "" {
			fields["oppgave"] = "Oppdrag " + ctx.Ordre
		}
	case TypeKjoretoyssjekk:
		if ctx.Vehicle != "" {
			fields["kjoretoy"] = ctx.Vehicle
		}
	}
	for key, value := range ctx.Prefill {
		if _, ok := def.Field(key); ok {
			fields[key] = value
		}
	}
	for key := range fields {
		if IsNeverAutoFill(key) {
			fields[key] = nil
		}
	}

	return &daylog.SchemaInstance{
		ID:            uuid.NewString(),
		Type:          def.Type,
		Origin:        origin,
		Status:        daylog.SchemaDraft,
		CreatedAt:     now,
		Fields:        fields,
		LinkedEntries: []int{},
	}
}

// DetectPreDay returns every pre-day definition triggered by text, in
// definition order.
func DetectPreDay(text string) []Definition {
	folded := extract.Fold(text)
	if folded == "" {
		return nil
	}
	var out []Definition
	for _, def := range preDay {
		if triggered(def, folded) {
			out = append(out, def)
		}
	}
	return out
}

// DetectRunning returns the first running definition triggered by text.
func DetectRunning(text string) (Definition, bool) {
	folded := extract.Fold(text)
	if folded == "" {
		return Definition{}, false
	}
	for _, def := range running {
		if triggered(def, folded) {
			return def, true
		}
	}
	return Definition{}, false
}

func triggered(def Definition, folded string) bool {
	for _, trigger := range def.Triggers {
		if strings.Contains(folded, trigger) {
			return true
		}
	}
	return false
}

// Lookup resolves the definition of an instance by its origin. Drift
// instances fall back to the running group.
func Lookup(inst *daylog.SchemaInstance) (Definition, bool) {
	if inst == nil {
		return Definition{}, false
	}
	switch inst.Origin {
	case daylog.OriginPreDay:
		return Get(GroupPreDay, inst.Type)
	case daylog.OriginDrift:
		if def, ok := Get(GroupDrift, inst.Type); ok {
			return def, true
		}
		return Get(GroupRunning, inst.Type)
	case daylog.OriginConversion:
		return Get(GroupConversion, inst.Type)
	default:
		return Get(GroupRunning, inst.Type)
	}
}

// MissingRequired returns the keys of required fields that are empty.
func MissingRequired(def Definition, fields map[string]any) []string {
	var missing []string
	for _, f := range def.Fields {
		if !f.Required {
			continue
		}
		if isEmpty(fields[f.Key]) {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
