// Package calendar defines the contract with the remote calendar backend.
// The backend owns all booking state; this service never stores events
// locally and treats the backend as the source of truth for conflicts.
package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested event does not exist or is inaccessible.
	ErrNotFound = errors.New("calendar: event not found")
)

// Person identifies an organizer or creator on an event.
type Person struct {
	Email       string
	DisplayName string
}

// Attendee is one entry on an event's attendee list. Resource attendees
// represent room calendars rather than humans.
type Attendee struct {
	Email          string
	DisplayName    string
	ResponseStatus string
	Optional       bool
	Resource       bool
}

// Event is the detailed record returned by the event list/get operations.
type Event struct {
	ID               string
	Summary          string
	Description      string
	Start            time.Time
	End              time.Time
	AllDay           bool
	Status           string
	EventType        string
	Organizer        *Person
	Creator          *Person
	Attendees        []Attendee
	AttendeesOmitted bool
	HangoutLink      string
	Location         string
	HTMLLink         string
	Updated          time.Time
}

// Cancelled reports whether the event has been removed on the backend side.
func (e Event) Cancelled() bool {
	return e.Status == "cancelled"
}

// HasAttendee reports whether the given email is already on the attendee list.
func (e Event) HasAttendee(email string) bool {
	for _, attendee := range e.Attendees {
		if attendee.Email == email {
			return true
		}
	}
	return false
}

// BusyBlock is an opaque aggregate interval from the free/busy query. It
// carries no event detail and is used only for the busy/free boolean.
type BusyBlock struct {
	Start time.Time
	End   time.Time
}

// ListOptions narrow an event list query.
type ListOptions struct {
	TimeMin           time.Time
	TimeMax           time.Time
	UpdatedMin        time.Time
	SingleOccurrences bool
	OrderByStart      bool
	ShowDeleted       bool
	MaxResults        int
}

// EventDraft describes a reservation to create. The acting identity becomes
// the organizer implicitly through the creating credentials.
type EventDraft struct {
	Summary        string
	Start          time.Time
	End            time.Time
	AttendeeEmails []string
	Notify         bool
}

// Client is the narrow interface consumed from the calendar backend.
// Implementations handle pagination internally; ListEvents returns the
// full result set for the requested window.
type Client interface {
	FreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) (map[string][]BusyBlock, error)
	ListEvents(ctx context.Context, calendarID string, opts ListOptions) ([]Event, error)
	GetEvent(ctx context.Context, calendarID, eventID string) (Event, error)
	CreateEvent(ctx context.Context, calendarID string, draft EventDraft) (Event, error)
	PatchEventAttendees(ctx context.Context, calendarID, eventID string, attendees []Attendee, notify bool) (Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string, notify bool) error
}

// Overlaps implements the half-open interval overlap test used everywhere a
// window is checked against busy state: [aStart,aEnd) intersects [bStart,bEnd)
// unless one ends before (or exactly when) the other begins.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aEnd.After(bStart) && aStart.Before(bEnd)
}

// AnyOverlap reports whether the window intersects any of the busy blocks.
func AnyOverlap(start, end time.Time, blocks []BusyBlock) bool {
	for _, block := range blocks {
		if Overlaps(start, end, block.Start, block.End) {
			return true
		}
	}
	return false
}
