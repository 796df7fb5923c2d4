package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/config"
)

var eventCounter uint64

// referenceTime is a Monday morning, so grid weeks built from it start on
// the same day.
var referenceTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// NewCatalog returns a two-room catalogue used across service tests.
func NewCatalog() *config.Catalog {
	catalog, err := config.NewCatalog([]config.Room{
		{Key: "balam", CalendarID: "balam@resource.example.com", Label: "Room Balam · 9 people"},
		{Key: "mir", CalendarID: "mir@resource.example.com", Label: "Room Mir · 4 people"},
	}, nil)
	if err != nil {
		panic(fmt.Sprintf("build catalog fixture: %v", err))
	}
	return catalog
}

// EventOption configures the generated event fixture.
type EventOption func(*calendar.Event)

// NewEvent returns a deterministic one-hour event starting at the reference
// time, with optional overrides.
func NewEvent(opts ...EventOption) calendar.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	event := calendar.Event{
		ID:      fmt.Sprintf("event-%03d", idx),
		Summary: fmt.Sprintf("Meeting %03d", idx),
		Start:   start,
		End:     start.Add(time.Hour),
		Status:  "confirmed",
		Organizer: &calendar.Person{
			Email:       fmt.Sprintf("user-%03d@example.com", idx),
			DisplayName: fmt.Sprintf("User %03d", idx),
		},
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}

// WithEventID overrides the generated event id.
func WithEventID(id string) EventOption {
	return func(e *calendar.Event) { e.ID = id }
}

// WithEventSummary overrides the generated summary.
func WithEventSummary(summary string) EventOption {
	return func(e *calendar.Event) { e.Summary = summary }
}

// WithEventWindow sets the start and end times.
func WithEventWindow(start, end time.Time) EventOption {
	return func(e *calendar.Event) {
		e.Start = start
		e.End = end
	}
}

// WithEventOrganizer sets the organizer.
func WithEventOrganizer(email, displayName string) EventOption {
	return func(e *calendar.Event) {
		e.Organizer = &calendar.Person{Email: email, DisplayName: displayName}
	}
}

// WithEventAttendees sets the attendee list.
func WithEventAttendees(attendees ...calendar.Attendee) EventOption {
	return func(e *calendar.Event) {
		e.Attendees = append([]calendar.Attendee(nil), attendees...)
	}
}

// WithEventDescription sets the description.
func WithEventDescription(description string) EventOption {
	return func(e *calendar.Event) { e.Description = description }
}

// WithEventCancelled marks the event as removed on the backend.
func WithEventCancelled() EventOption {
	return func(e *calendar.Event) { e.Status = "cancelled" }
}

// WithEventAllDay marks the event as an all-day entry.
func WithEventAllDay() EventOption {
	return func(e *calendar.Event) { e.AllDay = true }
}

// Busy builds a busy block covering [start, end).
func Busy(start, end time.Time) calendar.BusyBlock {
	return calendar.BusyBlock{Start: start, End: end}
}
