package preprocess

import (
	"fmt"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// MalformedInputError reports a column from which no fit parameter can be derived.
type MalformedInputError struct {
	Column string
	Stage  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: column %q: %s", e.Stage, e.Column, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, domain.ErrMalformedInput).
func (e *MalformedInputError) Unwrap() error {
	return domain.ErrMalformedInput
}
