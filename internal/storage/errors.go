package storage

import (
	"errors"
	"unicode/utf8"
)

// ErrLocked is returned by Open when another process holds the data lock.
var ErrLocked = errors.New("data directory is in use by another punchout process")

// ErrorKind names the key a StorageError came from.
type ErrorKind string

const (
	ErrorCurrent ErrorKind = "current"
	ErrorSave    ErrorKind = "save"
)

const rawPreviewLen = 100

// StorageError is a persistence failure surfaced as state. Raw holds a
// preview of the offending payload.
type StorageError struct {
	Type    ErrorKind `json:"type"`
	Message string    `json:"message"`
	Raw     string    `json:"raw,omitempty"`
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Type) + ": " + e.Message
}

// SaveFailure wraps a write error for presentation.
func SaveFailure(err error) *StorageError {
	out := &StorageError{Type: ErrorSave, Message: "Kunne ikke lagre dagens data"}
	if err != nil {
		out.Raw = err.Error()
	}
	return out
}

func loadFailure(err error, raw []byte) *StorageError {
	return &StorageError{
		Type:    ErrorCurrent,
		Message: "Kunne ikke lese aktiv dag: " + err.Error(),
		Raw:     preview(raw),
	}
}

func preview(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	s := string(raw)
	if utf8.RuneCountInString(s) <= rawPreviewLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:rawPreviewLen]) + "..."
}
