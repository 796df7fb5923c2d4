package application

import (
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/timegrid"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	Email string
}

// WeekGridParams narrows a week grid request. Zero values fall back to the
// configured defaults and the current week.
type WeekGridParams struct {
	Reference     time.Time
	SlotMinutes   int
	WorkStartHour int
	WorkEndHour   int
}

// WeekGrid is one week of availability across every room.
type WeekGrid struct {
	Week        timegrid.Week
	Rows        []availability.RoomRow
	Suggestions []availability.Suggestion
}

// NextGapParams identifies the starting point for a forward gap search on a
// single room's row.
type NextGapParams struct {
	Reference   time.Time
	SlotMinutes int
	RoomKey     string
	StartColumn int
	Slots       int
}

// BookRoomParams captures a reservation request. GuestEmail optionally
// invites one extra attendee alongside the booker.
type BookRoomParams struct {
	RoomKey    string
	Title      string
	Start      time.Time
	End        time.Time
	GuestEmail string
}

// Booking is a confirmed room reservation. Participants carries the emails
// that should receive the confirmation.
type Booking struct {
	EventID        string
	RoomKey        string
	RoomLabel      string
	Title          string
	Start          time.Time
	End            time.Time
	OrganizerEmail string
	OrganizerName  string
	Participants   []string
	HTMLLink       string
}

// BookRoomResult reports either the created booking or a conflict detected
// by the pre-write recheck, with the nearest later opening when one exists.
type BookRoomResult struct {
	Conflict    bool
	Alternative *availability.Suggestion
	Booking     Booking
}

// AssignRoomParams attaches a room to an event the principal already owns.
type AssignRoomParams struct {
	EventID string
	RoomKey string
}

// AssignRoomResult reports the outcome of a room assignment.
type AssignRoomResult struct {
	AlreadyAssigned bool
	Conflict        bool
	Reason          string
	Booking         Booking
}

// RoomOption is one bookable room offered for a specific window.
type RoomOption struct {
	Key   string
	Label string
}

// EventRoomSuggestion pairs an upcoming roomless event with the rooms free
// for its window.
type EventRoomSuggestion struct {
	EventID        string
	Title          string
	Start          time.Time
	End            time.Time
	AvailableRooms []RoomOption
}

// Dashboard aggregates the personal views shown on the landing page.
type Dashboard struct {
	Today    []Booking
	Upcoming []EventRoomSuggestion
}
