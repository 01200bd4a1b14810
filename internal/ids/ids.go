// Package ids validates the UUID identifiers accepted by the public API.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports a malformed identifier supplied by the caller.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid %s", e.Field)
}

// Valid reports whether v is a UUID in canonical 8-4-4-4-12 text form (any case).
// uuid.Parse also accepts braced, URN and undashed forms; those are rejected here.
func Valid(v string) bool {
	if len(v) != 36 || v[8] != '-' || v[13] != '-' || v[18] != '-' || v[23] != '-' {
		return false
	}
	_, err := uuid.Parse(v)
	return err == nil
}

// Validate returns a *ValidationError naming field when v is not a valid UUID.
func Validate(field, v string) error {
	if !Valid(v) {
		return &ValidationError{Field: field, Value: v}
	}
	return nil
}

// FilterValid keeps the valid ids in their original order. Duplicates are kept.
func FilterValid(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if Valid(v) {
			out = append(out, v)
		}
	}
	return out
}
