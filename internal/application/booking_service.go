package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/timegrid"
)

// primaryCalendarID is the acting user's own calendar. Reservations are
// created there so the booker becomes the organizer; the room participates
// as a resource attendee.
const primaryCalendarID = "primary"

// upcomingLookahead bounds the roomless-event search window.
const upcomingLookahead = 7 * 24 * time.Hour

// maxUpcomingSuggestions caps how many upcoming events get a per-window
// room availability lookup.
const maxUpcomingSuggestions = 10

// BookingNotifier delivers booking confirmations. Delivery is best effort;
// the booking itself never depends on it.
type BookingNotifier interface {
	BookingCreated(ctx context.Context, booking Booking) error
}

// NoopNotifier discards confirmations. Used when chat delivery is not configured.
type NoopNotifier struct{}

// BookingCreated implements BookingNotifier.
func (NoopNotifier) BookingCreated(context.Context, Booking) error { return nil }

// OfficeHours bounds which hours count as a plausible meeting time when
// scanning personal calendars.
type OfficeHours struct {
	StartHour int
	EndHour   int
}

// Contains reports whether the instant falls inside office hours.
func (h OfficeHours) Contains(t time.Time) bool {
	if h.StartHour == 0 && h.EndHour == 0 {
		return true
	}
	hour := t.Hour()
	return hour >= h.StartHour && hour < h.EndHour
}

// BookingService owns the reservation lifecycle: creating bookings with a
// conflict recheck, attaching rooms to existing events, cancellation, and
// the personal booking views.
type BookingService struct {
	cal      calendar.Client
	catalog  *config.Catalog
	notifier BookingNotifier
	opts     timegrid.Options
	office   OfficeHours
	logger   *slog.Logger
	now      func() time.Time
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(cal calendar.Client, catalog *config.Catalog, notifier BookingNotifier, opts timegrid.Options, office OfficeHours, logger *slog.Logger, now func() time.Time) *BookingService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		cal:      cal,
		catalog:  catalog,
		notifier: notifier,
		opts:     opts.Normalize(),
		office:   office,
		logger:   logger,
		now:      now,
	}
}

// BookRoom validates the request, rechecks the room's free/busy state for
// the exact window, and only then writes the event. The recheck narrows the
// race with concurrent bookings; the calendar backend remains the final
// arbiter. On conflict the result carries the nearest later opening on the
// same room and day, when one exists.
func (s *BookingService) BookRoom(ctx context.Context, principal Principal, params BookRoomParams) (BookRoomResult, error) {
	if s == nil {
		return BookRoomResult{}, fmt.Errorf("BookingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "booking", "book_room", "room", params.RoomKey)

	room, ok := s.catalog.Room(params.RoomKey)
	if !ok {
		return BookRoomResult{}, ErrNotFound
	}

	vErr := &ValidationError{}
	validateBookingWindow(params.Title, params.Start, params.End, s.now(), vErr)
	if vErr.HasErrors() {
		return BookRoomResult{}, vErr
	}

	busy, err := s.roomBusy(ctx, room, params.Start, params.End)
	if err != nil {
		return BookRoomResult{}, err
	}
	if calendar.AnyOverlap(params.Start, params.End, busy) {
		result := BookRoomResult{Conflict: true}
		result.Alternative = s.nextOpening(ctx, logger, room, params.Start, params.End)
		logger.Info("booking rejected by recheck", "start", params.Start, "end", params.End)
		return result, nil
	}

	title := strings.TrimSpace(params.Title)
	attendees := []string{room.CalendarID, principal.Email}
	participants := []string{principal.Email}
	if guest := strings.TrimSpace(params.GuestEmail); guest != "" && !strings.EqualFold(guest, principal.Email) {
		attendees = append(attendees, guest)
		participants = append(participants, guest)
	}
	created, err := s.cal.CreateEvent(ctx, primaryCalendarID, calendar.EventDraft{
		Summary:        fmt.Sprintf("[%s] %s", room.ShortLabel(), title),
		Start:          params.Start,
		End:            params.End,
		AttendeeEmails: attendees,
		Notify:         true,
	})
	if err != nil {
		return BookRoomResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	booking := Booking{
		EventID:        created.ID,
		RoomKey:        room.Key,
		RoomLabel:      room.Label,
		Title:          title,
		Start:          params.Start,
		End:            params.End,
		OrganizerEmail: principal.Email,
		OrganizerName:  calendar.HumanizeEmail(principal.Email),
		Participants:   participants,
		HTMLLink:       created.HTMLLink,
	}

	if err := s.notifier.BookingCreated(ctx, booking); err != nil {
		logger.Warn("booking confirmation delivery failed", "event_id", booking.EventID, "error", err)
	}
	logger.Info("booking created", "event_id", booking.EventID, "start", params.Start, "end", params.End)

	return BookRoomResult{Booking: booking}, nil
}

// AssignRoom attaches a room to an event the principal already owns. The
// operation is idempotent: an event that already lists the room short-circuits
// without touching the backend again.
func (s *BookingService) AssignRoom(ctx context.Context, principal Principal, params AssignRoomParams) (AssignRoomResult, error) {
	if s == nil {
		return AssignRoomResult{}, fmt.Errorf("BookingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "booking", "assign_room", "room", params.RoomKey)

	room, ok := s.catalog.Room(params.RoomKey)
	if !ok {
		return AssignRoomResult{}, ErrNotFound
	}

	event, err := s.cal.GetEvent(ctx, primaryCalendarID, params.EventID)
	if err != nil {
		return AssignRoomResult{}, mapCalendarError(err)
	}
	if event.Cancelled() {
		return AssignRoomResult{}, ErrNotFound
	}
	if event.AllDay {
		vErr := &ValidationError{}
		vErr.add("event_id", "only timed events can be assigned a room")
		return AssignRoomResult{}, vErr
	}

	organizer := calendar.ResolveOrganizer(event, s.catalog.IsRoomResource)
	participants := []string{principal.Email}
	for _, attendee := range event.Attendees {
		if attendee.Resource || s.catalog.IsRoomResource(attendee.Email) {
			continue
		}
		if attendee.ResponseStatus == "declined" || strings.EqualFold(attendee.Email, principal.Email) {
			continue
		}
		participants = append(participants, attendee.Email)
	}
	booking := Booking{
		EventID:        event.ID,
		RoomKey:        room.Key,
		RoomLabel:      room.Label,
		Title:          event.Summary,
		Start:          event.Start,
		End:            event.End,
		OrganizerEmail: organizer.Email,
		OrganizerName:  organizer.Name,
		Participants:   participants,
		HTMLLink:       event.HTMLLink,
	}

	if event.HasAttendee(room.CalendarID) {
		return AssignRoomResult{AlreadyAssigned: true, Booking: booking}, nil
	}

	busy, err := s.roomBusy(ctx, room, event.Start, event.End)
	if err != nil {
		return AssignRoomResult{}, err
	}
	if calendar.AnyOverlap(event.Start, event.End, busy) {
		logger.Info("assignment rejected by recheck", "event_id", event.ID)
		return AssignRoomResult{
			Conflict: true,
			Reason:   fmt.Sprintf("%s is already booked for this time", room.ShortLabel()),
		}, nil
	}

	attendees := append([]calendar.Attendee{}, event.Attendees...)
	attendees = append(attendees, calendar.Attendee{Email: room.CalendarID, Resource: true})
	if _, err := s.cal.PatchEventAttendees(ctx, primaryCalendarID, event.ID, attendees, true); err != nil {
		return AssignRoomResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := s.notifier.BookingCreated(ctx, booking); err != nil {
		logger.Warn("booking confirmation delivery failed", "event_id", booking.EventID, "error", err)
	}
	logger.Info("room assigned", "event_id", event.ID)

	return AssignRoomResult{Booking: booking}, nil
}

// CancelBooking removes a booking the principal organized.
func (s *BookingService) CancelBooking(ctx context.Context, principal Principal, eventID string) error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "booking", "cancel_booking")

	event, err := s.cal.GetEvent(ctx, primaryCalendarID, eventID)
	if err != nil {
		return mapCalendarError(err)
	}
	if event.Cancelled() {
		return ErrNotFound
	}
	if !isOrganizedBy(event, principal.Email) {
		return ErrUnauthorized
	}

	if err := s.cal.DeleteEvent(ctx, primaryCalendarID, eventID, true); err != nil {
		return mapCalendarError(err)
	}
	logger.Info("booking cancelled", "event_id", eventID)
	return nil
}

// TodayBookings lists the principal's room reservations for the current day,
// ordered by start time. Rooms whose calendars fail to list degrade to
// absent rather than failing the view.
func (s *BookingService) TodayBookings(ctx context.Context, principal Principal) ([]Booking, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "booking", "today_bookings")

	local := s.now().In(s.opts.Location)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.opts.Location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	bookings := make([]Booking, 0)
	for _, room := range s.catalog.Rooms() {
		events, err := s.cal.ListEvents(ctx, room.CalendarID, calendar.ListOptions{
			TimeMin:           dayStart,
			TimeMax:           dayEnd,
			SingleOccurrences: true,
			OrderByStart:      true,
		})
		if err != nil {
			logger.Warn("room listing failed, skipping room", "room", room.Key, "error", err)
			continue
		}
		for _, event := range events {
			if event.Cancelled() || event.AllDay {
				continue
			}
			if !participates(event, principal.Email) {
				continue
			}
			bookings = append(bookings, Booking{
				EventID:       event.ID,
				RoomKey:       room.Key,
				RoomLabel:     room.Label,
				Title:         event.Summary,
				Start:         event.Start,
				End:           event.End,
				OrganizerName: calendar.ResolveOrganizer(event, s.catalog.IsRoomResource).Name,
				HTMLLink:      event.HTMLLink,
			})
		}
	}

	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].RoomLabel < bookings[j].RoomLabel
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})
	return bookings, nil
}

// UpcomingRoomSuggestions scans the principal's own calendar for meetings in
// the next week that have no room yet and pairs each with the rooms free for
// its window.
func (s *BookingService) UpcomingRoomSuggestions(ctx context.Context, principal Principal) ([]EventRoomSuggestion, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "booking", "upcoming_suggestions")

	now := s.now()
	events, err := s.cal.ListEvents(ctx, primaryCalendarID, calendar.ListOptions{
		TimeMin:           now,
		TimeMax:           now.Add(upcomingLookahead),
		SingleOccurrences: true,
		OrderByStart:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	suggestions := make([]EventRoomSuggestion, 0)
	for _, event := range events {
		if len(suggestions) >= maxUpcomingSuggestions {
			break
		}
		if !s.needsRoom(event) {
			continue
		}

		busyByCalendar, err := s.cal.FreeBusy(ctx, event.Start, event.End, s.catalog.CalendarIDs())
		if err != nil {
			logger.Warn("room availability lookup failed, skipping event", "event_id", event.ID, "error", err)
			continue
		}
		available := make([]RoomOption, 0)
		for _, room := range s.catalog.Rooms() {
			if calendar.AnyOverlap(event.Start, event.End, busyByCalendar[room.CalendarID]) {
				continue
			}
			available = append(available, RoomOption{Key: room.Key, Label: room.Label})
		}

		suggestions = append(suggestions, EventRoomSuggestion{
			EventID:        event.ID,
			Title:          event.Summary,
			Start:          event.Start,
			End:            event.End,
			AvailableRooms: available,
		})
	}
	return suggestions, nil
}

// Dashboard aggregates today's bookings with the upcoming roomless events.
func (s *BookingService) Dashboard(ctx context.Context, principal Principal) (Dashboard, error) {
	if s == nil {
		return Dashboard{}, fmt.Errorf("BookingService is nil")
	}

	today, err := s.TodayBookings(ctx, principal)
	if err != nil {
		return Dashboard{}, err
	}
	upcoming, err := s.UpcomingRoomSuggestions(ctx, principal)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Today: today, Upcoming: upcoming}, nil
}

// needsRoom filters the personal calendar down to real meetings that could
// use a room: timed weekday events of at least the minimum duration, inside
// office hours, not location markers, and without a room attendee already.
func (s *BookingService) needsRoom(event calendar.Event) bool {
	if event.Cancelled() || event.AllDay {
		return false
	}
	switch event.EventType {
	case "workingLocation", "outOfOffice", "focusTime":
		return false
	}
	if event.End.Sub(event.Start) < minBookingDuration {
		return false
	}

	local := event.Start.In(s.opts.Location)
	if weekday := local.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	if !s.office.Contains(local) {
		return false
	}

	summary := strings.ToLower(event.Summary)
	if strings.Contains(summary, "office") || strings.Contains(summary, "home") {
		return false
	}

	for _, attendee := range event.Attendees {
		if attendee.Resource || s.catalog.IsRoomResource(attendee.Email) {
			return false
		}
	}
	return true
}

// nextOpening finds the first slot-aligned free window for the same duration
// later on the requested day. Failures degrade to no alternative.
func (s *BookingService) nextOpening(ctx context.Context, logger *slog.Logger, room config.Room, start, end time.Time) *availability.Suggestion {
	step := time.Duration(s.opts.SlotMinutes) * time.Minute
	duration := end.Sub(start)
	slots := int((duration + step - 1) / step)

	local := start.In(s.opts.Location)
	dayEnd := time.Date(local.Year(), local.Month(), local.Day(), s.opts.WorkEndHour, 0, 0, 0, s.opts.Location)

	scanStart := start.Add(step)
	if !scanStart.Add(duration).Before(dayEnd) && !scanStart.Add(duration).Equal(dayEnd) {
		return nil
	}

	busy, err := s.roomBusy(ctx, room, scanStart, dayEnd)
	if err != nil {
		logger.Warn("alternative lookup failed", "room", room.Key, "error", err)
		return nil
	}

	cells := make([]availability.Cell, 0)
	for cellStart := scanStart; !cellStart.Add(step).After(dayEnd); cellStart = cellStart.Add(step) {
		cellEnd := cellStart.Add(step)
		cells = append(cells, availability.Cell{
			StartISO: timegrid.FormatLocal(cellStart.In(s.opts.Location)),
			EndISO:   timegrid.FormatLocal(cellEnd.In(s.opts.Location)),
			Busy:     calendar.AnyOverlap(cellStart, cellEnd, busy),
		})
	}

	gap, found := availability.NextGap(cells, 0, slots)
	if !found {
		return nil
	}
	return &availability.Suggestion{
		Room:     room.Key,
		Label:    room.Label,
		StartISO: gap.StartISO,
		EndISO:   gap.EndISO,
		Slots:    slots,
	}
}

func (s *BookingService) roomBusy(ctx context.Context, room config.Room, start, end time.Time) ([]calendar.BusyBlock, error) {
	busyByCalendar, err := s.cal.FreeBusy(ctx, start, end, []string{room.CalendarID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return busyByCalendar[room.CalendarID], nil
}

func isOrganizedBy(event calendar.Event, email string) bool {
	if email == "" {
		return false
	}
	if event.Organizer != nil && strings.EqualFold(event.Organizer.Email, email) {
		return true
	}
	if event.Creator != nil && strings.EqualFold(event.Creator.Email, email) {
		return true
	}
	return false
}

func participates(event calendar.Event, email string) bool {
	if isOrganizedBy(event, email) {
		return true
	}
	for _, attendee := range event.Attendees {
		if strings.EqualFold(attendee.Email, email) && attendee.ResponseStatus != "declined" {
			return true
		}
	}
	return false
}

func mapCalendarError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, calendar.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
