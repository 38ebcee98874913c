package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested patient id is absent from
// the store.
var ErrNotFound = errors.New("patient not found")

// ErrIDExists is returned when a create targets an id that is already
// registered.
var ErrIDExists = errors.New("patient ID already exists")

// ValidationError reports the first field of a record that failed
// required-field, type, or enumerated-value checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
