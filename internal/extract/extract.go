package extract

import (
	"regexp"
	"strconv"
	"strings"

	"punchout/internal/daylog"
)

// External needs detected in text.
const (
	NeedMaskinlogg      = "Maskinlogg"
	NeedElrapp          = "Elrapp"
	NeedSJA             = "SJA"
	NeedArbeidsvarsling = "Arbeidsvarsling"
)

// KnownResources is the equipment vocabulary, in reporting order.
var KnownResources = []string{
	"lagsbil", "brøytebil", "hjullaster", "gravemaskin", "lastebil", "strøbil",
	"feiemaskin", "kompressor", "aggregat", "trailer", "pickup", "varebil", "mannskap",
}

var (
	ordrePattern     = regexp.MustCompile(`\b(\d{4,}-\d{1,4})\b`)
	rangePattern     = regexp.MustCompile(`(?i)(\d{1,2})[:.](\d{2})\s*(?:til|-)\s*(\d{1,2})[:.](\d{2})`)
	clockToken       = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	varslingPattern  = regexp.MustCompile(`\b(full|manuell|enkel|ingen)\s+(?:arbeids)?varsling`)
	varslingFallback = regexp.MustCompile(`\b(full|manuell|enkel)\b`)
	numberPattern    = regexp.MustCompile(`\b(0[.,]\d+|\d+[.,]\d+|\d+)\b`)
)

type needRule struct {
	need     string
	keywords []string
}

var needRules = []needRule{
	{NeedMaskinlogg, []string{"maskinlogg", "logge inn på maskin", "logg inn"}},
	{NeedElrapp, []string{"elrapp"}},
	{NeedSJA, []string{"sja", "sikker jobb"}},
	{NeedArbeidsvarsling, []string{"arbeidsvarsling"}},
}

// Extraction holds the facts found in one entry.
type Extraction struct {
	Ordre           string   `json:"ordre,omitempty"`
	Fra             string   `json:"fra,omitempty"`
	Til             string   `json:"til,omitempty"`
	Ressurser       []string `json:"ressurser"`
	Behov           []string `json:"behov,omitempty"`
	Arbeidsvarsling string   `json:"arbeidsvarsling,omitempty"`
}

// DraftUpdate converts the extraction for reconciliation into a draft.
func (e Extraction) DraftUpdate(entryIndex int) daylog.DraftUpdate {
	return daylog.DraftUpdate{
		Fra:             e.Fra,
		Til:             e.Til,
		Ressurser:       e.Ressurser,
		Behov:           e.Behov,
		Arbeidsvarsling: e.Arbeidsvarsling,
		EntryIndex:      entryIndex,
	}
}

// Orchestrate extracts every known fact from text.
func Orchestrate(text string) Extraction {
	folded := Fold(text)
	out := Extraction{Ressurser: []string{}}
	if m := ordrePattern.FindStringSubmatch(text); m != nil {
		out.Ordre = m[1]
	}
	out.Fra, out.Til = TimeRange(text)
	for _, res := range KnownResources {
		if strings.Contains(folded, res) {
			out.Ressurser = append(out.Ressurser, res)
		}
	}
	for _, rule := range needRules {
		if containsAny(folded, rule.keywords) {
			out.Behov = append(out.Behov, rule.need)
		}
	}
	out.Arbeidsvarsling = WarningLevel(folded)
	return out
}

// TimeRange finds "H:MM til H:MM" (or a dash), falling back to the first
// two clock tokens. A single token yields only fra.
func TimeRange(text string) (fra, til string) {
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		return daylog.PadClock(m[1], m[2]), daylog.PadClock(m[3], m[4])
	}
	times := AllTimes(text)
	switch {
	case len(times) >= 2:
		return times[0], times[1]
	case len(times) == 1:
		return times[0], ""
	default:
		return "", ""
	}
}

// AllTimes returns every valid clock token in text, zero-padded.
func AllTimes(text string) []string {
	var out []string
	for _, m := range clockToken.FindAllStringSubmatch(text, -1) {
		clock := daylog.PadClock(m[1], m[2])
		if daylog.IsClock(clock) {
			out = append(out, clock)
		}
	}
	return out
}

// WarningLevel returns the arbeidsvarsling level named in folded text.
func WarningLevel(folded string) string {
	if m := varslingPattern.FindStringSubmatch(folded); m != nil {
		return m[1]
	}
	if m := varslingFallback.FindStringSubmatch(folded); m != nil {
		return m[1]
	}
	return ""
}

// FrictionValue returns the first number in text, reading a comma as the
// decimal separator.
func FrictionValue(text string) (float64, bool) {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
