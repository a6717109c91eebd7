package apperr

import (
	"errors"
	"strings"

	"github.com/samber/oops"
)

// Violation describes one field that failed validation.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type violationsError struct {
	violations []Violation
}

func (e *violationsError) Error() string {
	msgs := make([]string, 0, len(e.violations))
	for _, v := range e.violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *violationsError) Unwrap() error { return ErrValidation }

// Invalid builds a Validation error listing every violated field.
func Invalid(violations ...Violation) error {
	fields := make([]string, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, v.Field)
	}
	return oops.Code("VALIDATION_FAILED").
		With("fields", fields).
		Wrap(&violationsError{violations: violations})
}

// Violations extracts the field violations from a Validation error.
func Violations(err error) []Violation {
	var ve *violationsError
	if errors.As(err, &ve) {
		return ve.violations
	}
	return nil
}
