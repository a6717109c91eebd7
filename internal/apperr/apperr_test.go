package apperr

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), KindUnexpected},
		{"validation", New(KindValidation, "X", "bad"), KindValidation},
		{"not found", NotFound("task", "123"), KindNotFound},
		{"token expired", New(KindTokenExpired, "TOKEN_EXPIRED", "expired"), KindTokenExpired},
		{"token invalid", New(KindTokenInvalid, "TOKEN_INVALID", "invalid"), KindTokenInvalid},
		{"integrity", Wrap(KindIntegrityViolation, "DUP", errors.New("duplicate")), KindIntegrityViolation},
		{"wrapped with fmt", fmt.Errorf("outer: %w", New(KindForbidden, "NOPE", "no")), KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unexpected("DB_DOWN", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, Is(err, KindUnexpected))
	assert.Equal(t, "DB_DOWN", Code(err))
	assert.Nil(t, Wrap(KindUnexpected, "X", nil))
}

func TestInvalid_ListsEveryField(t *testing.T) {
	err := Invalid(
		Violation{Field: "title", Message: "title is required"},
		Violation{Field: "description", Message: "description must be at most 300 characters"},
	)

	require.True(t, Is(err, KindValidation))
	violations := Violations(err)
	require.Len(t, violations, 2)
	assert.Equal(t, "title", violations[0].Field)
	assert.Equal(t, "description", violations[1].Field)
	assert.Contains(t, err.Error(), "title is required")
}

func TestViolations_NonValidationError(t *testing.T) {
	assert.Nil(t, Violations(NotFound("user", "1")))
}

func TestLogError_IncludesCode(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	LogError(log, "request failed", NotFound("task", "abc"))

	out := buf.String()
	assert.Contains(t, out, `"code":"TASK_NOT_FOUND"`)
	assert.Contains(t, out, `"kind":"not_found"`)
	assert.Contains(t, out, `"id":"abc"`)
}
