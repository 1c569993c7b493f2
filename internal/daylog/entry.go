package daylog

// Entry is one classified utterance. Only the decision flags change after
// creation, plus Text through an explicit edit.
type Entry struct {
	Time              string    `json:"time"`
	Type              EntryType `json:"type"`
	Text              string    `json:"text"`
	RUHDecision       string    `json:"ruhDecision,omitempty"`
	VaktloggConfirmed bool      `json:"vaktloggConfirmed,omitempty"`
	VaktloggDiscarded bool      `json:"vaktloggDiscarded,omitempty"`
	Converted         bool      `json:"converted,omitempty"`
	KeptAsNote        bool      `json:"keptAsNote,omitempty"`
	Verified          bool      `json:"verified,omitempty"`
	LockedByUser      bool      `json:"lockedByUser,omitempty"`
}

// IsNote reports whether the entry is a free-text note.
func (e Entry) IsNote() bool {
	return e.Type == TypeNotat
}
