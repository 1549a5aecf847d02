package app

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced chapter, verse, user or
// submission does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects input before any backend is called.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ids are uuids in every backend; postgres rejects anything else with an
// error instead of returning no rows
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
