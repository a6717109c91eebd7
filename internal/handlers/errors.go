package handlers

import (
	"errors"
	"net/http"
	"strings"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/calendar"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details []apperr.Violation `json:"details,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindUnauthorized:       http.StatusUnauthorized,
	apperr.KindTokenExpired:       http.StatusUnauthorized,
	apperr.KindTokenInvalid:       http.StatusUnauthorized,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindIntegrityViolation: http.StatusConflict,
	apperr.KindUnexpected:         http.StatusInternalServerError,
}

var kindCode = map[apperr.Kind]string{
	apperr.KindValidation:         "validation_error",
	apperr.KindUnauthorized:       "invalid_credentials",
	apperr.KindTokenExpired:       "expired_token",
	apperr.KindTokenInvalid:       "invalid_token",
	apperr.KindForbidden:          "forbidden",
	apperr.KindNotFound:           "not_found",
	apperr.KindIntegrityViolation: "conflict",
	apperr.KindUnexpected:         "internal_error",
}

var integrityMessages = map[string]string{
	"USER_EMAIL_TAKEN": "a user with this email already exists",
}

// RespondError writes err as a JSON error response. Unexpected errors are
// logged with their code and context and answered with a generic message.
func RespondError(c *gin.Context, err error) {
	if errors.Is(err, calendar.ErrNotConfigured) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "calendar_not_configured",
			Message: err.Error(),
		})
		return
	}

	kind := apperr.KindOf(err)
	code := apperr.Code(err)
	resp := ErrorResponse{Error: publicCode(kind, code), Message: err.Error()}

	switch kind {
	case apperr.KindValidation:
		resp.Details = apperr.Violations(err)
	case apperr.KindIntegrityViolation:
		resp.Message = "request conflicts with existing data"
		if msg, ok := integrityMessages[code]; ok {
			resp.Message = msg
		}
	case apperr.KindUnexpected:
		apperr.LogError(*zerolog.Ctx(c.Request.Context()), "request failed", err)
		resp.Message = "internal server error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(kindStatus[kind], resp)
}

// publicCode exposes the error code when it names a client-facing
// condition. Operation codes (*_FAILED) and the 401 kinds use the kind's
// fixed code.
func publicCode(kind apperr.Kind, code string) string {
	switch kind {
	case apperr.KindUnauthorized, apperr.KindTokenExpired, apperr.KindTokenInvalid,
		apperr.KindValidation, apperr.KindUnexpected:
		return kindCode[kind]
	}
	if code == "" || strings.HasSuffix(code, "_FAILED") {
		return kindCode[kind]
	}
	return strings.ToLower(code)
}

func notFound(c *gin.Context, resource string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
		Error:   resource + "_not_found",
		Message: resource + " not found",
	})
}

// uuidParam parses a UUID from the path parameter or, with query set, from
// the query string.
func uuidParam(c *gin.Context, name string, query bool) (uuid.UUID, error) {
	raw := c.Param(name)
	if query {
		raw = c.Query(name)
	}
	if raw == "" {
		return uuid.Nil, apperr.Invalid(apperr.Violation{Field: name, Message: name + " is required"})
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid(apperr.Violation{Field: name, Message: name + " must be a valid UUID"})
	}
	return id, nil
}

func invalidBody(err error) error {
	return apperr.Invalid(apperr.Violation{Field: "body", Message: "malformed request body: " + err.Error()})
}
