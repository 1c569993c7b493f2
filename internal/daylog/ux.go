package daylog

// Overlay names the modal the presentation layer has open.
type Overlay string

const (
	OverlayNone                Overlay = ""
	OverlaySchemaEdit          Overlay = "schema_edit"
	OverlayDraftEdit           Overlay = "draft_edit"
	OverlayTimeEntry           Overlay = "time_entry"
	OverlayMainTimeEntry       Overlay = "main_time_entry"
	OverlayExternalInstruction Overlay = "external_instruction"
)

// UxState is the persisted UI cursor. At most one overlay is active, so
// every setter below replaces the whole value.
type UxState struct {
	ActiveOverlay        Overlay `json:"activeOverlay,omitempty"`
	SchemaID             string  `json:"schemaId,omitempty"`
	DraftOrdre           string  `json:"draftOrdre,omitempty"`
	DecisionIndex        *int    `json:"decisionIndex,omitempty"`
	ExternalSystem       string  `json:"externalSystem,omitempty"`
	ExternalInstructions string  `json:"externalInstructions,omitempty"`
}

// IsZero reports whether no overlay is open.
func (u UxState) IsZero() bool {
	return u.ActiveOverlay == OverlayNone
}

// Clone returns a copy that shares nothing with u.
func (u UxState) Clone() UxState {
	out := u
	if u.DecisionIndex != nil {
		idx := *u.DecisionIndex
		out.DecisionIndex = &idx
	}
	return out
}
