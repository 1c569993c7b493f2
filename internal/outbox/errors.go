package outbox

import "errors"

var (
	// ErrDuplicate is returned when an export id is already queued.
	ErrDuplicate = errors.New("export already queued")
	// ErrNotFound is returned when no row matches an export id.
	ErrNotFound = errors.New("export not found")
	// ErrSchemaMismatch indicates the database schema version differs from schemaVersion.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// ErrorClassifier allows errors to declare their classification.
// Known kinds: "permanent" maps to a terminal failure, everything else is
// retried.
type ErrorClassifier interface {
	ErrorKind() string
}

// Error kinds understood by the sync engine.
const (
	KindPermanent = "permanent"
	KindTransient = "transient"
)

// IsPermanent reports whether err classifies itself as permanent.
func IsPermanent(err error) bool {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind() == KindPermanent
	}
	return false
}
