package notify

import (
	"fmt"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/slack"
)

// ConfirmationMessage renders the booking confirmation sent to each
// participant. appURL links back to the booking app; empty links drop their
// buttons rather than rendering dead ones.
func ConfirmationMessage(booking application.Booking, loc *time.Location, appURL string) slack.Message {
	if loc == nil {
		loc = time.UTC
	}
	start := booking.Start.In(loc)
	end := booking.End.In(loc)

	window := fmt.Sprintf("%s %s - %s",
		start.Format("Mon, 02 Jan"),
		start.Format("15:04"),
		end.Format("15:04"),
	)

	title := booking.Title
	if title == "" {
		title = "(untitled)"
	}

	blocks := []slack.Block{
		slack.HeaderBlock("Room booking confirmed"),
		slack.SectionBlock(
			slack.Markdown(fmt.Sprintf("*Room:*\n%s", booking.RoomLabel)),
			slack.Markdown(fmt.Sprintf("*When:*\n%s", window)),
			slack.Markdown(fmt.Sprintf("*Title:*\n%s", title)),
			slack.Markdown(fmt.Sprintf("*Booked by:*\n%s", booking.OrganizerName)),
		),
		slack.ContextBlock("You are listed as a participant of this booking."),
	}

	buttons := make([]slack.Element, 0, 2)
	if booking.HTMLLink != "" {
		buttons = append(buttons, slack.LinkButton("View in calendar", booking.HTMLLink))
	}
	if appURL != "" {
		buttons = append(buttons, slack.LinkButton("Manage bookings", appURL))
	}
	if len(buttons) > 0 {
		blocks = append(blocks, slack.ActionsBlock(buttons...))
	}

	return slack.Message{
		Text:   fmt.Sprintf("Room booking confirmed: %s, %s", booking.RoomLabel, window),
		Blocks: blocks,
	}
}

// auditMessage summarizes a delivered confirmation for the admin feed.
func auditMessage(booking application.Booking, recipients int) slack.Message {
	return slack.Message{
		Text: fmt.Sprintf("Confirmation sent for %q in %s (%d recipient(s))",
			booking.Title, booking.RoomLabel, recipients),
	}
}

// StartReminderMessage renders the "starting soon" reminder.
func StartReminderMessage(booking application.Booking, lead time.Duration, loc *time.Location, appURL string) slack.Message {
	if loc == nil {
		loc = time.UTC
	}
	start := booking.Start.In(loc)
	end := booking.End.In(loc)
	minutes := int(lead.Minutes())

	title := booking.Title
	if title == "" {
		title = "(untitled)"
	}

	blocks := []slack.Block{
		slack.HeaderBlock("Room booking starting soon"),
		slack.SectionBlock(
			slack.Markdown(fmt.Sprintf("*Room:*\n%s", booking.RoomLabel)),
			slack.Markdown(fmt.Sprintf("*Time:*\n%s - %s", start.Format("15:04"), end.Format("15:04"))),
			slack.Markdown(fmt.Sprintf("*Meeting:*\n%s", title)),
			slack.Markdown(fmt.Sprintf("*Organized by:*\n%s", booking.OrganizerName)),
		),
		slack.ContextBlock(fmt.Sprintf("Starts in *%d minutes* at %s", minutes, start.Format("15:04"))),
	}
	if buttons := bookingButtons(booking, appURL); len(buttons) > 0 {
		blocks = append(blocks, slack.ActionsBlock(buttons...))
	}

	return slack.Message{
		Text:   fmt.Sprintf("Room booking starting in %d minutes: %s, %s", minutes, booking.RoomLabel, start.Format("15:04")),
		Blocks: blocks,
	}
}

// EndReminderMessage renders the "ending soon" reminder. handoff describes
// what happens to the room next and goes into the context block.
func EndReminderMessage(booking application.Booking, lead time.Duration, loc *time.Location, appURL, handoff string) slack.Message {
	if loc == nil {
		loc = time.UTC
	}
	end := booking.End.In(loc)
	minutes := int(lead.Minutes())

	title := booking.Title
	if title == "" {
		title = "(untitled)"
	}

	blocks := []slack.Block{
		slack.HeaderBlock("Room booking ending soon"),
		slack.SectionBlock(
			slack.Markdown(fmt.Sprintf("*Room:*\n%s", booking.RoomLabel)),
			slack.Markdown(fmt.Sprintf("*Ends at:*\n%s", end.Format("15:04"))),
			slack.Markdown(fmt.Sprintf("*Meeting:*\n%s", title)),
			slack.Markdown(fmt.Sprintf("*Organized by:*\n%s", booking.OrganizerName)),
		),
		slack.ContextBlock(handoff),
	}
	if buttons := bookingButtons(booking, appURL); len(buttons) > 0 {
		blocks = append(blocks, slack.ActionsBlock(buttons...))
	}

	return slack.Message{
		Text:   fmt.Sprintf("Room booking ending in %d minutes: %s, %s", minutes, booking.RoomLabel, end.Format("15:04")),
		Blocks: blocks,
	}
}

// DigestEntry is one booking line in a user's morning digest.
type DigestEntry struct {
	Start     time.Time
	End       time.Time
	Title     string
	RoomLabel string
}

// DigestMessage renders a user's bookings for the day.
func DigestMessage(name string, entries []DigestEntry, loc *time.Location) slack.Message {
	if loc == nil {
		loc = time.UTC
	}
	if name == "" {
		name = "there"
	}

	plural := "s"
	if len(entries) == 1 {
		plural = ""
	}
	blocks := []slack.Block{
		slack.HeaderBlock(fmt.Sprintf("Good morning, %s!", name)),
		slack.TextSectionBlock(fmt.Sprintf("You have *%d room booking%s* scheduled for today:", len(entries), plural)),
		slack.DividerBlock(),
	}

	for _, entry := range entries {
		title := entry.Title
		if title == "" {
			title = "(untitled)"
		}
		window := fmt.Sprintf("%s - %s", entry.Start.In(loc).Format("15:04"), entry.End.In(loc).Format("15:04"))
		blocks = append(blocks, slack.SectionBlock(
			slack.Markdown(fmt.Sprintf("*Time:* %s\n*Room:* %s", window, entry.RoomLabel)),
			slack.Markdown(fmt.Sprintf("*Event:*\n%s", title)),
		))
	}

	return slack.Message{
		Text:   "Your room bookings for today",
		Blocks: blocks,
	}
}

// bookingButtons builds the shared calendar/app link buttons. Empty links
// drop their buttons rather than rendering dead ones.
func bookingButtons(booking application.Booking, appURL string) []slack.Element {
	buttons := make([]slack.Element, 0, 2)
	if booking.HTMLLink != "" {
		buttons = append(buttons, slack.LinkButton("View in calendar", booking.HTMLLink))
	}
	if appURL != "" {
		buttons = append(buttons, slack.LinkButton("Manage bookings", appURL))
	}
	return buttons
}
