// Package validate holds the field-level validation error shared by the
// domain packages. Handlers map it to 400 responses.
package validate

import (
	"strings"

	"github.com/go-faster/errors"
)

// Error describes a single rejected input field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Field returns a validation error for the named field.
func Field(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Errors collects validation errors. A nil or empty Errors is not an error.
type Errors []*Error

// Add appends a field error.
func (es *Errors) Add(field, message string) {
	*es = append(*es, Field(field, message))
}

// Err returns nil when nothing was collected, the single error when exactly
// one was collected, and the whole list otherwise.
func (es Errors) Err() error {
	switch len(es) {
	case 0:
		return nil
	case 1:
		return es[0]
	default:
		return es
	}
}

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// As reports whether err carries validation failures and returns the first
// one for response rendering.
func As(err error) (*Error, bool) {
	var single *Error
	if errors.As(err, &single) {
		return single, true
	}
	var many Errors
	if errors.As(err, &many) && len(many) > 0 {
		return many[0], true
	}
	return nil, false
}

// Required reports an error when s is blank.
func Required(es *Errors, field, s string) {
	if strings.TrimSpace(s) == "" {
		es.Add(field, "is required")
	}
}
