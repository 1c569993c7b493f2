package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lowercases text with Norwegian casing rules and trims it.
// A Caser is stateful, so one is built per call.
func Fold(text string) string {
	return strings.TrimSpace(cases.Lower(language.Norwegian).String(text))
}

func containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
