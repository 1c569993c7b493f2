package daylog

// AppState is the top-level lifecycle state.
type AppState string

const (
	NotStarted AppState = "NOT_STARTED"
	Active     AppState = "ACTIVE"
	Locked     AppState = "LOCKED"
	// Finished is a legacy terminal state accepted on load only.
	Finished AppState = "FINISHED"
)

// Phase subdivides the Active state.
type Phase string

const (
	PhasePre    Phase = "pre"
	PhaseActive Phase = "active"
	PhaseEnding Phase = "ending"
)

// StartTimeSource records how the start time was set.
type StartTimeSource string

const (
	SourcePending StartTimeSource = "pending"
	SourceUser    StartTimeSource = "user"
	SourceAuto    StartTimeSource = "auto"
)

// EntryType classifies an entry.
type EntryType string

const (
	TypeNotat    EntryType = "notat"
	TypeHendelse EntryType = "hendelse"
	TypeVaktlogg EntryType = "vaktlogg"
	TypeFriksjon EntryType = "friksjon"
	TypePause    EntryType = "pause"
	TypeKjoring  EntryType = "kjoring"
	TypeOrdre    EntryType = "ordre"
)

// DraftStatus is the status of a per-ordre draft.
type DraftStatus string

const (
	DraftOpen      DraftStatus = "draft"
	DraftConfirmed DraftStatus = "confirmed"
	DraftDiscarded DraftStatus = "discarded"
)

// Origin says where a schema instance came from.
type Origin string

const (
	OriginPreDay     Origin = "pre_day"
	OriginDrift      Origin = "drift"
	OriginRunning    Origin = "running"
	OriginConversion Origin = "conversion"
)

// SchemaStatus is the status of a schema instance.
type SchemaStatus string

const (
	SchemaDraft        SchemaStatus = "draft"
	SchemaConfirmed    SchemaStatus = "confirmed"
	SchemaSkipped      SchemaStatus = "skipped"
	SchemaDiscarded    SchemaStatus = "discarded"
	SchemaDeferred     SchemaStatus = "deferred"
	SchemaForceSkipped SchemaStatus = "force_skipped"
)

// RUH decisions stored on entries.
const (
	RUHYes = "yes"
	RUHNo  = "no"
)

// Main-time discard reasons.
const (
	ReasonNoWorkDone      = "no_work_done"
	ReasonLoggedElsewhere = "logged_elsewhere"
)

// ValidDiscardReason reports whether reason may be used to discard main time.
func ValidDiscardReason(reason string) bool {
	return reason == ReasonNoWorkDone || reason == ReasonLoggedElsewhere
}
