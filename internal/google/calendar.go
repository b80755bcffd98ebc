package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Event is a timed calendar entry.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// Calendar creates events on one calendar.
type Calendar struct {
	svc        *calendar.Service
	calendarID string
	creds      Credentials
}

func NewCalendar(ctx context.Context, creds Credentials, calendarID string) (*Calendar, error) {
	opts, err := creds.ClientOptions(ctx, calendar.CalendarEventsScope)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Calendar{svc: svc, calendarID: calendarID, creds: creds}, nil
}

// CreateEvent inserts ev and returns the created event id.
func (c *Calendar) CreateEvent(ctx context.Context, ev Event) (string, error) {
	ctx, cancel := c.creds.withTimeout(ctx)
	defer cancel()

	created, err := c.svc.Events.Insert(c.calendarID, toCalendarEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event %q: %w", ev.Title, err)
	}
	return created.Id, nil
}

func toCalendarEvent(ev Event) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
}
