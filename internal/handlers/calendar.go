package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/calendar"
	"task-manager/api/internal/validation"

	"github.com/gin-gonic/gin"
)

// CalendarClient is implemented by *calendar.Client, including a nil one.
type CalendarClient interface {
	UpcomingEvents(ctx context.Context, n int64) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, e calendar.Event) (*calendar.Event, error)
}

type CalendarHandler struct {
	client    CalendarClient
	validator *validation.Validator
}

func NewCalendarHandler(client CalendarClient, validator *validation.Validator) *CalendarHandler {
	return &CalendarHandler{client: client, validator: validator}
}

// Events lists upcoming events; ?limit= caps the count (1-250, default 10).
func (h *CalendarHandler) Events(c *gin.Context) {
	limit := int64(10)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 250 {
			RespondError(c, apperr.Invalid(apperr.Violation{Field: "limit", Message: "limit must be between 1 and 250"}))
			return
		}
		limit = n
	}

	events, err := h.client.UpcomingEvents(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, calendarError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req validation.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, invalidBody(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondError(c, err)
		return
	}

	event, err := h.client.CreateEvent(c.Request.Context(), calendar.Event{
		Summary:     req.Summary,
		Location:    req.Location,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
	})
	if err != nil {
		RespondError(c, calendarError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event_id": event.ID, "event": event})
}

func calendarError(err error) error {
	if errors.Is(err, calendar.ErrNotConfigured) {
		return err
	}
	return apperr.Unexpected("CALENDAR_REQUEST_FAILED", err)
}
