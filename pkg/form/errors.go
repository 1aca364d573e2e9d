package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by interactions with a closed form.
	ErrClosed = errors.New("form: closed")
	// ErrNoSubmit is returned when a form without a submit button is submitted.
	ErrNoSubmit = errors.New("form: no submit button")
	// ErrSubmitted is returned while the submit button is disabled by an
	// earlier submission.
	ErrSubmitted = errors.New("form: already submitted")
	// ErrUnknownField is returned when an interaction names a missing control.
	ErrUnknownField = errors.New("form: unknown field")
)

// FieldError names one failed constraint.
type FieldError struct {
	ID  string
	Tag string
}

// ValidationError lists the controls that failed validity checks.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", field.ID, field.Tag))
	}
	return "form: invalid fields: " + strings.Join(parts, ", ")
}

// IDs returns the failing field ids in document order.
func (e *ValidationError) IDs() []string {
	out := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		out = append(out, field.ID)
	}
	return out
}
