package state

import (
	"errors"
	"fmt"

	"visionix/internal/timecode"
)

// Kind is the machine-readable error category surfaced in 4xx responses.
type Kind string

const (
	KindInvalidStatus Kind = "invalid_status"
	KindInvalidFormat Kind = "invalid_format"
	KindOutOfRange    Kind = "out_of_range"
)

// ValidationError reports a rejected update: which field, what the client
// sent, and why. It is always produced before any mutation of the store.
type ValidationError struct {
	Kind  Kind
	Field string
	Value any
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Kind, e.Msg)
}

// wrapTimecode converts a timecode parse failure into a field-level
// validation error, carrying the kind through unchanged.
func wrapTimecode(field string, err error) error {
	var pe *timecode.ParseError
	if errors.As(err, &pe) {
		return &ValidationError{Kind: Kind(pe.Kind), Field: field, Value: pe.Input, Msg: pe.Msg}
	}
	return err
}
