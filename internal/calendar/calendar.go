// Package calendar reads and creates events in a Google Calendar using a
// service-account credentials file.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("calendar integration is not configured")

type Config struct {
	CredentialsFile string
	CalendarID      string
}

type Event struct {
	ID          string    `json:"id,omitempty"`
	Summary     string    `json:"summary"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Link        string    `json:"html_link,omitempty"`
}

// Client is safe to use as a nil pointer; every call then returns
// ErrNotConfigured.
type Client struct {
	svc        *gcal.Service
	calendarID string
	now        func() time.Time
}

// New returns nil, ErrNotConfigured when no credentials file is set and no
// client options are supplied.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.CredentialsFile == "" && len(opts) == 0 {
		return nil, ErrNotConfigured
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(gcal.CalendarScope),
		)
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{svc: svc, calendarID: calendarID, now: time.Now}, nil
}

// UpcomingEvents lists up to n events starting from now, soonest first.
func (c *Client) UpcomingEvents(ctx context.Context, n int64) ([]Event, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if n <= 0 {
		n = 10
	}
	resp, err := c.svc.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(c.now().UTC().Format(time.RFC3339)).
		MaxResults(n).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, fromAPI(item))
	}
	return events, nil
}

// CreateEvent inserts e and returns the new event id.
func (c *Client) CreateEvent(ctx context.Context, e Event) (*Event, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	created, err := c.svc.Events.Insert(c.calendarID, &gcal.Event{
		Summary:     e.Summary,
		Location:    e.Location,
		Description: e.Description,
		Start:       &gcal.EventDateTime{DateTime: e.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: e.End.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create calendar event: %w", err)
	}
	event := fromAPI(created)
	return &event, nil
}

func fromAPI(item *gcal.Event) Event {
	return Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Location:    item.Location,
		Description: item.Description,
		Start:       parseEventTime(item.Start),
		End:         parseEventTime(item.End),
		Link:        item.HtmlLink,
	}
}

// parseEventTime handles both timed events and all-day events, which only
// carry a date.
func parseEventTime(t *gcal.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse(time.DateOnly, t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
