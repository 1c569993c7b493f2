package extract

import "regexp"

var (
	contextOrdre     = regexp.MustCompile(`(?i)(?:oppdrag|ordre|ordrenummer)\s+(\d{4,}-?\d*)`)
	contextOrdreBare = regexp.MustCompile(`(\d{6}-\d{4})`)
	contextVehicle   = regexp.MustCompile(`(?i)(?:kjøretøy|kjoretoy|bil|kjøretøysjekk|kjoretoysjekk)\s+(\d{6,})`)
)

// SchemaContext is what day-start text can contribute to pre-day forms.
type SchemaContext struct {
	Ordre   string
	Vehicle string
}

// Empty reports whether nothing was found.
func (c SchemaContext) Empty() bool {
	return c.Ordre == "" && c.Vehicle == ""
}

// ContextFromText finds an ordre and a vehicle id in day-start text.
func ContextFromText(text string) SchemaContext {
	var ctx SchemaContext
	if m := contextOrdre.FindStringSubmatch(text); m != nil {
		ctx.Ordre = m[1]
	} else if m := contextOrdreBare.FindStringSubmatch(text); m != nil {
		ctx.Ordre = m[1]
	}
	if m := contextVehicle.FindStringSubmatch(text); m != nil {
		ctx.Vehicle = m[1]
	}
	return ctx
}
