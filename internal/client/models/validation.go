package models

import (
	"sort"
	"strings"
)

// ValidationError reports client-side field checks that failed.
// Fields maps a field name to a human readable message, one per field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns nil for an empty mapping, so callers can write
//
//	if err := models.NewValidationError(errs); err != nil { ... }
func NewValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
