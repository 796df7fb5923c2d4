package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/slack"
	"github.com/example/room-booking/internal/store"
)

const (
	// startReminderLead is how far before the start the reminder fires.
	startReminderLead = 5 * time.Minute

	// endReminderLead is how far before the end the wrap-up reminder fires.
	endReminderLead = 5 * time.Minute

	// reminderTolerance absorbs scheduler jitter around the lead instants.
	reminderTolerance = 30 * time.Second

	// handoffGap is the longest pause between two bookings that still
	// counts as a back-to-back handoff in the wrap-up reminder.
	handoffGap = 15 * time.Minute

	// endScanLookahead bounds the listing window for wrap-up reminders and
	// doubles as the "room is free" horizon when no follow-up booking is
	// found inside it.
	endScanLookahead = 2 * time.Hour

	startReminderKeyPrefix = "reminder_start_"
	endReminderKeyPrefix   = "reminder_end_"
)

// Reminder sends time-based nudges around bookings: a heads-up shortly
// before the start, a wrap-up note shortly before the end, and a morning
// digest of the day's bookings. Reminders dedupe through an in-memory TTL
// cache rather than the durable ledger; a restart may repeat one, which is
// acceptable for messages that are only relevant for a few minutes.
type Reminder struct {
	cal     calendar.Client
	catalog *config.Catalog
	service *Service
	cache   store.Cache
	office  application.OfficeHours
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
}

// NewReminder wires the reminder sender. cache holds the already-sent
// markers and should expire entries after a few hours.
func NewReminder(cal calendar.Client, catalog *config.Catalog, service *Service, cache store.Cache, office application.OfficeHours, loc *time.Location, logger *slog.Logger, now func() time.Time) *Reminder {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Reminder{
		cal:     cal,
		catalog: catalog,
		service: service,
		cache:   cache,
		office:  office,
		loc:     loc,
		logger:  logger,
		now:     now,
	}
}

// RemindUpcoming sends the "starting soon" reminder for bookings whose start
// falls within the lead window. Per-room listing failures are logged and
// skipped without blocking other rooms.
func (r *Reminder) RemindUpcoming(ctx context.Context) error {
	now := r.now()
	logger := r.logger.With("service", "notify", "operation", "remind_upcoming")

	if !r.office.Contains(now.In(r.loc)) {
		logger.Debug("outside office hours, reminders skipped")
		return nil
	}

	for _, room := range r.catalog.Rooms() {
		events, err := r.cal.ListEvents(ctx, room.CalendarID, calendar.ListOptions{
			TimeMin:           now.Add(startReminderLead - reminderTolerance),
			TimeMax:           now.Add(startReminderLead + time.Minute),
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
			until := event.Start.Sub(now)
			if until <= 0 || until > startReminderLead+reminderTolerance {
				continue
			}
			if _, sent := r.cache.Get(startReminderKeyPrefix + event.ID); sent {
				continue
			}

			booking := r.bookingFor(event, room)
			message := StartReminderMessage(booking, startReminderLead, r.loc, r.service.appURL)
			if r.deliverReminder(ctx, logger, booking, message) {
				r.cache.Put(startReminderKeyPrefix+event.ID, "1")
				r.service.auditText(ctx, fmt.Sprintf("Start reminder sent for %q in %s", booking.Title, booking.RoomLabel))
			}
		}
	}
	return nil
}

// RemindEnding sends the wrap-up reminder for bookings whose end falls
// within the lead window, with a note about what happens to the room next.
func (r *Reminder) RemindEnding(ctx context.Context) error {
	now := r.now()
	logger := r.logger.With("service", "notify", "operation", "remind_ending")

	if !r.office.Contains(now.In(r.loc)) {
		logger.Debug("outside office hours, reminders skipped")
		return nil
	}

	for _, room := range r.catalog.Rooms() {
		events, err := r.cal.ListEvents(ctx, room.CalendarID, calendar.ListOptions{
			TimeMin:           now.Add(-4 * time.Hour),
			TimeMax:           now.Add(endScanLookahead),
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
			remaining := event.End.Sub(now)
			if remaining < endReminderLead-reminderTolerance || remaining > endReminderLead+reminderTolerance {
				continue
			}
			if _, sent := r.cache.Get(endReminderKeyPrefix + event.ID); sent {
				continue
			}

			booking := r.bookingFor(event, room)
			handoff := r.handoffNote(event, events)
			message := EndReminderMessage(booking, endReminderLead, r.loc, r.service.appURL, handoff)
			if r.deliverReminder(ctx, logger, booking, message) {
				r.cache.Put(endReminderKeyPrefix+event.ID, "1")
				r.service.auditText(ctx, fmt.Sprintf("End reminder sent for %q in %s", booking.Title, booking.RoomLabel))
			}
		}
	}
	return nil
}

// DailyDigest sends each participant a morning summary of their bookings
// for the day. Weekends are skipped.
func (r *Reminder) DailyDigest(ctx context.Context) error {
	now := r.now().In(r.loc)
	logger := r.logger.With("service", "notify", "operation", "daily_digest")

	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		logger.Debug("weekend, digest skipped")
		return nil
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	perUser := make(map[string][]DigestEntry)
	for _, room := range r.catalog.Rooms() {
		events, err := r.cal.ListEvents(ctx, room.CalendarID, calendar.ListOptions{
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
			entry := DigestEntry{
				Start:     event.Start,
				End:       event.End,
				Title:     event.Summary,
				RoomLabel: room.Label,
			}
			for _, email := range Participants(event, r.catalog) {
				perUser[email] = append(perUser[email], entry)
			}
		}
	}

	recipients := make([]string, 0, len(perUser))
	for email := range perUser {
		recipients = append(recipients, email)
	}
	sort.Strings(recipients)

	sent := 0
	for _, email := range recipients {
		entries := perUser[email]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Start.Before(entries[j].Start)
		})

		message := DigestMessage(displayName(email), entries, r.loc)
		if err := r.service.sendDirect(ctx, email, message); err != nil {
			if errors.Is(err, slack.ErrUserNotFound) {
				logger.Debug("no chat account for digest recipient", "email", email)
				continue
			}
			logger.Warn("digest delivery failed", "email", email, "error", err)
			continue
		}
		sent++
	}

	if sent > 0 {
		r.service.auditText(ctx, fmt.Sprintf("Daily digest sent to %d user(s)", sent))
	}
	logger.Info("daily digest complete", "recipients", sent)
	return nil
}

// deliverReminder DMs the booking's participants; when nobody could be
// reached directly the message falls back to the shared channel so the
// reminder is not lost. Reports whether anything was posted.
func (r *Reminder) deliverReminder(ctx context.Context, logger *slog.Logger, booking application.Booking, message slack.Message) bool {
	delivered := 0
	for _, email := range booking.Participants {
		if err := r.service.sendDirect(ctx, email, message); err != nil {
			if errors.Is(err, slack.ErrUserNotFound) {
				logger.Debug("no chat account for participant", "email", email)
				continue
			}
			logger.Warn("reminder delivery failed", "email", email, "event_id", booking.EventID, "error", err)
			continue
		}
		delivered++
	}
	if delivered > 0 {
		return true
	}
	if r.service.defaultChannel == "" {
		return false
	}
	if err := r.service.chat.PostMessage(ctx, r.service.defaultChannel, message); err != nil {
		logger.Warn("reminder channel fallback failed", "event_id", booking.EventID, "error", err)
		return false
	}
	return true
}

// handoffNote describes what happens to the room after event ends, based on
// the other events in the same listing window.
func (r *Reminder) handoffNote(event calendar.Event, events []calendar.Event) string {
	var next *calendar.Event
	for i := range events {
		candidate := events[i]
		if candidate.ID == event.ID || candidate.Cancelled() || candidate.AllDay {
			continue
		}
		if candidate.Start.Before(event.End) {
			continue
		}
		if next == nil || candidate.Start.Before(next.Start) {
			next = &events[i]
		}
	}
	if next == nil {
		return fmt.Sprintf("Room is free for at least the next %d hours.", int(endScanLookahead.Hours()))
	}
	if next.Start.Sub(event.End) <= handoffGap {
		title := next.Summary
		if title == "" {
			title = "(untitled)"
		}
		return fmt.Sprintf("Next up: %q at %s. Please wrap up on time!", title, next.Start.In(r.loc).Format("15:04"))
	}
	return fmt.Sprintf("Room is free until %s.", next.Start.In(r.loc).Format("15:04"))
}

func (r *Reminder) bookingFor(event calendar.Event, room config.Room) application.Booking {
	organizer := calendar.ResolveOrganizer(event, r.catalog.IsRoomResource)
	return application.Booking{
		EventID:        event.ID,
		RoomKey:        room.Key,
		RoomLabel:      room.Label,
		Title:          event.Summary,
		Start:          event.Start,
		End:            event.End,
		OrganizerEmail: organizer.Email,
		OrganizerName:  organizer.Name,
		Participants:   Participants(event, r.catalog),
		HTMLLink:       event.HTMLLink,
	}
}

// displayName derives a greeting name from an email address, good enough
// for the digest salutation when the directory has nothing better.
func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	first, _, _ := strings.Cut(local, ".")
	if first == "" {
		return ""
	}
	return strings.ToUpper(first[:1]) + first[1:]
}
