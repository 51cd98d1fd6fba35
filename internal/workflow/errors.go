package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record is absent, inactive, outside the
	// actor's scope, or in a state the operation does not accept.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor's role may not run the
	// operation at all.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a store constraint rejects a write.
	ErrConflict = errors.New("conflict")

	// ErrNoEvidence is returned by SubmitForReview for a case without active
	// evidence.
	ErrNoEvidence = fmt.Errorf("cannot submit without evidence: %w", ErrConflict)
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
