package schema

// FieldType is the value type of a form field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldBoolean FieldType = "boolean"
	FieldEnum    FieldType = "enum"
	FieldTime    FieldType = "time"
	FieldDate    FieldType = "date"
	FieldNumber  FieldType = "number"
)

// Group is the definition group a type belongs to.
type Group string

const (
	GroupPreDay     Group = "pre_day"
	GroupRunning    Group = "running"
	GroupDrift      Group = "drift"
	GroupConversion Group = "conversion"
)

// Field describes one form field.
type Field struct {
	Key      string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
}

// Definition is an immutable form definition.
type Definition struct {
	Type     string
	Label    string
	Group    Group
	Fields   []Field
	Triggers []string
	// ImmediateConfirm marks duty-log style forms decided right away.
	ImmediateConfirm bool
	// EndOfDayConfirm marks forms that are only decided during Håndrens.
	EndOfDayConfirm bool
	// Informational forms never block the day.
	Informational bool
}

// Field returns the field with key.
func (d Definition) Field(key string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Schema type keys referenced by the motor.
const (
	TypeKjoretoyssjekk  = "kjoretoyssjekk"
	TypeSJAPreDay       = "sja_preday"
	TypeSkademelding    = "skademelding"
	TypeUonsketHendelse = "uonsket_hendelse"
	TypeAdHoc           = "ad_hoc"
	TypeHendelse        = "hendelse"
	TypeVaktlogg        = "vaktlogg"
	TypeFriksjonsmaling = "friksjonsmaling"
	TypeRUH             = "ruh"
	TypePause           = "pause"
	TypeLoggbokKjoretoy = "loggbok_kjoretoy"
	TypeForbedring      = "forbedringsforslag"
	TypeKvalitetsavvik  = "kvalitetsavvik"
	TypeHuskelapp       = "huskelapp"
)

// neverAutoFill lists fields that must be written by a person. It applies to
// every form type.
var neverAutoFill = map[string]struct{}{
	"konsekvens":     {},
	"tiltak":         {},
	"forslag_tiltak": {},
	"arsak":          {},
	"vurdering":      {},
}

// IsNeverAutoFill reports whether key must never be filled automatically.
func IsNeverAutoFill(key string) bool {
	_, ok := neverAutoFill[key]
	return ok
}

var (
	fTidspunkt   = Field{Key: "tidspunkt", Label: "Tidspunkt", Type: FieldTime, Required: true}
	fBeskrivelse = Field{Key: "beskrivelse", Label: "Beskrivelse", Type: FieldString, Required: true}
	fSted        = Field{Key: "sted", Label: "Sted", Type: FieldString}
	fKommentar   = Field{Key: "kommentar", Label: "Kommentar", Type: FieldString}
)

var preDay = []Definition{
	{
		Type: TypeKjoretoyssjekk, Label: "Daglig kjøretøysjekk", Group: GroupPreDay,
		Triggers: []string{"kjøretøysjekk", "bilsjekk", "sjekk av bil", "kjøretøy"},
		Fields: []Field{
			{Key: "kjoretoy", Label: "Kjøretøy", Type: FieldString, Required: true},
			{Key: "dato", Label: "Dato", Type: FieldDate, Required: true},
			{Key: "lys_ok", Label: "Lys OK", Type: FieldBoolean},
			{Key: "bremser_ok", Label: "Bremser OK", Type: FieldBoolean},
			{Key: "dekk_ok", Label: "Dekk OK", Type: FieldBoolean},
			fKommentar,
		},
	},
	{
		Type: TypeSJAPreDay, Label: "SJA (før arbeid)", Group: GroupPreDay,
		Triggers: []string{"sja", "sikker jobb"},
		Fields: []Field{
			{Key: "oppgave", Label: "Oppgave", Type: FieldString, Required: true},
			fSted,
			{Key: "risiko", Label: "Risiko", Type: FieldString},
			{Key: "konsekvens", Label: "Konsekvens", Type: FieldString, Required: true},
			{Key: "tiltak", Label: "Tiltak", Type: FieldString, Required: true},
			{Key: "arbeidsvarsling", Label: "Arbeidsvarsling", Type: FieldEnum, Options: []string{"ingen", "enkel", "manuell", "full"}},
			{Key: "godkjent", Label: "Godkjent", Type: FieldBoolean, Required: true},
		},
	},
}

var running = []Definition{
	{
		Type: TypeSkademelding, Label: "Skademelding", Group: GroupRunning,
		Triggers: []string{"skademelding", "skade på", "skadet"},
		Fields: []Field{
			fTidspunkt,
			fSted,
			fBeskrivelse,
			{Key: "involverte", Label: "Involverte", Type: FieldString},
			{Key: "vitner", Label: "Vitner", Type: FieldString},
			{Key: "tiltak_utfort", Label: "Tiltak utført", Type: FieldString},
		},
	},
	{
		Type: TypeUonsketHendelse, Label: "Uønsket hendelse", Group: GroupRunning,
		Triggers: []string{"uønsket hendelse", "nestenulykke", "avvik", "nesten ulykke"},
		Fields: []Field{
			fTidspunkt,
			fBeskrivelse,
			{Key: "arsak", Label: "Årsak", Type: FieldString},
			{Key: "forslag_tiltak", Label: "Forslag tiltak", Type: FieldString},
		},
	},
	{
		Type: TypeAdHoc, Label: "Egendefinert skjema", Group: GroupRunning,
		Fields: []Field{
			{Key: "tittel", Label: "Tittel", Type: FieldString, Required: true},
			{Key: "innhold", Label: "Innhold", Type: FieldString},
		},
	},
}

var drift = []Definition{
	{
		Type: TypeHendelse, Label: "Hendelse", Group: GroupDrift,
		Triggers: []string{"hendelse", "skjedde", "oppsto"},
		Fields:   []Field{fTidspunkt, fBeskrivelse, fSted},
	},
	{
		Type: TypeVaktlogg, Label: "Vaktlogg", Group: GroupDrift, ImmediateConfirm: true,
		Triggers: []string{"vaktlogg", "loggfør", "logg dette"},
		Fields: []Field{
			fTidspunkt,
			{Key: "innhold", Label: "Innhold", Type: FieldString, Required: true},
		},
	},
	{
		Type: TypeFriksjonsmaling, Label: "Friksjonsmåling", Group: GroupDrift, EndOfDayConfirm: true,
		Triggers: []string{"friksjon", "friksjonsmåling", "målte friksjon"},
		Fields: []Field{
			fTidspunkt,
			{Key: "sted", Label: "Sted", Type: FieldString, Required: true},
			{Key: "verdi", Label: "Verdi", Type: FieldNumber, Required: true},
			fKommentar,
		},
	},
	{
		Type: TypeRUH, Label: "RUH (Rapport Uønsket Hendelse)", Group: GroupDrift,
		Fields: []Field{
			fTidspunkt,
			fBeskrivelse,
			fSted,
			{Key: "arsak", Label: "Årsak", Type: FieldString, Required: true},
			{Key: "tiltak", Label: "Tiltak", Type: FieldString, Required: true},
		},
	},
	{
		Type: TypePause, Label: "Pause", Group: GroupDrift, Informational: true,
		Triggers: []string{"pause", "lunsj", "matpause", "lunsjpause", "tilbake fra pause"},
		Fields:   []Field{{Key: "tidspunkt", Label: "Tidspunkt", Type: FieldTime}},
	},
}

var conversion = []Definition{
	{
		Type: TypeLoggbokKjoretoy, Label: "Loggbok kjøretøy", Group: GroupConversion,
		Fields: []Field{
			{Key: "dato", Label: "Dato", Type: FieldDate, Required: true},
			{Key: "kjoretoy", Label: "Kjøretøy", Type: FieldString, Required: true},
			{Key: "innhold", Label: "Innhold", Type: FieldString, Required: true},
		},
	},
	{
		Type: TypeForbedring, Label: "Forbedringsforslag", Group: GroupConversion,
		Fields: []Field{
			{Key: "tittel", Label: "Tittel", Type: FieldString, Required: true},
			fBeskrivelse,
			{Key: "begrunnelse", Label: "Begrunnelse", Type: FieldString},
		},
	},
	{
		Type: TypeKvalitetsavvik, Label: "Kvalitetsavvik", Group: GroupConversion,
		Fields: []Field{
			fBeskrivelse,
			{Key: "arsak", Label: "Årsak", Type: FieldString, Required: true},
			{Key: "tiltak", Label: "Tiltak", Type: FieldString, Required: true},
		},
	},
	{
		Type: TypeHuskelapp, Label: "Huskelapp (intern)", Group: GroupConversion,
		Fields: []Field{{Key: "innhold", Label: "Innhold", Type: FieldString, Required: true}},
	},
}

// Definitions returns the definitions of group in declaration order.
func Definitions(group Group) []Definition {
	switch group {
	case GroupPreDay:
		return preDay
	case GroupRunning:
		return running
	case GroupDrift:
		return drift
	case GroupConversion:
		return conversion
	default:
		return nil
	}
}

// Get returns the definition of typ within group.
func Get(group Group, typ string) (Definition, bool) {
	for _, def := range Definitions(group) {
		if def.Type == typ {
			return def, true
		}
	}
	return Definition{}, false
}

var shortLabels = map[string]string{
	TypeRUH:            "RUH",
	TypeKjoretoyssjekk: "Kjøretøysjekk",
}

// Label returns a short human label for a schema type from any group.
func Label(typ string) string {
	if label, ok := shortLabels[typ]; ok {
		return label
	}
	for _, group := range []Group{GroupDrift, GroupRunning, GroupPreDay, GroupConversion} {
		if def, ok := Get(group, typ); ok {
			return def.Label
		}
	}
	return typ
}
