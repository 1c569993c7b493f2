package schema

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"punchout/internal/daylog"
	"punchout/internal/extract"
)

var (
	// ErrUnknownField is returned for keys the definition does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when raw input does not fit the field type.
	ErrInvalidValue = errors.New("invalid field value")
)

// CoerceField converts raw text input into the typed value for key. Empty
// input clears the field.
func CoerceField(def Definition, key, raw string) (any, error) {
	field, ok := def.Field(key)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", def.Type, key, ErrUnknownField)
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	switch field.Type {
	case FieldBoolean:
		switch extract.Fold(value) {
		case "true", "ja", "yes", "1":
			return true, nil
		case "false", "nei", "no", "0":
			return false, nil
		}
	case FieldNumber:
		if n, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
			return n, nil
		}
	case FieldEnum:
		folded := extract.Fold(value)
		if slices.Contains(field.Options, folded) {
			return folded, nil
		}
	case FieldTime:
		normalized := strings.ReplaceAll(value, ".", ":")
		if parts := strings.SplitN(normalized, ":", 2); len(parts) == 2 {
			if clock := daylog.PadClock(parts[0], parts[1]); daylog.IsClock(clock) && len(parts[1]) == 2 {
				return clock, nil
			}
		}
	case FieldDate:
		if _, err := time.Parse(daylog.DateLayout, value); err == nil {
			return value, nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("%s.%s=%q (%s): %w", def.Type, key, raw, field.Type, ErrInvalidValue)
}
