package exercise

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound also covers records owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the assignment changed between read and write.
	ErrConflict = errors.New("assignment was modified concurrently")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
