package extract

import "punchout/internal/daylog"

type keywordGroup struct {
	typ      daylog.EntryType
	keywords []string
}

// Groups are tested in order; the first hit wins.
var entryTypeGroups = []keywordGroup{
	{daylog.TypeHendelse, []string{"hendelse", "skjedde", "oppsto", "hendt", "oppstått"}},
	{daylog.TypeVaktlogg, []string{"vaktlogg", "loggfør", "logg dette", "loggfører"}},
	{daylog.TypeFriksjon, []string{"friksjon", "friksjonsmåling", "målte friksjon", "friksjonsverdier"}},
	{daylog.TypePause, []string{"pause", "lunsj", "spise", "spiser", "hviler", "tar pause", "ferdig med lunsj", "ferdig med pause"}},
	{daylog.TypeKjoring, []string{"kjør", "kjører", "kjørte", "kjørt", "drar til", "ferdig på", "på vei til", "ankommet", "ankom", "reiser til"}},
}

// GuessEntryType classifies text by keyword. Unmatched text is a note.
func GuessEntryType(text string) daylog.EntryType {
	folded := Fold(text)
	if folded == "" {
		return daylog.TypeNotat
	}
	for _, group := range entryTypeGroups {
		if containsAny(folded, group.keywords) {
			return group.typ
		}
	}
	return daylog.TypeNotat
}
