// Package validation checks inbound request payloads and reports every
// violated field at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"task-manager/api/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// selfChecker is implemented by requests with rules the tags cannot express.
type selfChecker interface {
	Check() []apperr.Violation
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

// Struct validates req and returns a Validation error listing every
// violation, or nil.
func (val *Validator) Struct(req any) error {
	var violations []apperr.Violation

	if err := val.v.Struct(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return apperr.Unexpected("VALIDATOR_FAILED", err)
		}
		for _, fe := range ve {
			violations = append(violations, apperr.Violation{Field: fe.Field(), Message: fieldError(fe)})
		}
	}

	if sc, ok := req.(selfChecker); ok {
		violations = appendMissing(violations, sc.Check())
	}

	if len(violations) > 0 {
		return apperr.Invalid(violations...)
	}
	return nil
}

// appendMissing adds extra violations for fields not already reported.
func appendMissing(violations, extra []apperr.Violation) []apperr.Violation {
	seen := make(map[string]bool, len(violations))
	for _, v := range violations {
		seen[v.Field] = true
	}
	for _, v := range extra {
		if !seen[v.Field] {
			violations = append(violations, v)
			seen[v.Field] = true
		}
	}
	return violations
}

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
