package notify

import (
	"strings"

	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/config"
)

// rosterPrefixes mark description lines that name confirmation recipients
// explicitly. When any are present they take precedence over the attendee
// list, so a booking made on someone's behalf reaches the right people.
var rosterPrefixes = []string{"owners:", "participants:"}

// Participants resolves who should receive the confirmation for an event.
// Explicit rosters in the description win; otherwise the attendee list is
// used, minus room resources and declined attendees. Results are lowercased
// and deduplicated.
func Participants(event calendar.Event, catalog *config.Catalog) []string {
	emails := rosterFromDescription(event.Description)
	if len(emails) == 0 {
		emails = rosterFromAttendees(event, catalog)
	}

	seen := make(map[string]struct{}, len(emails))
	result := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || catalog.IsRoomResource(email) {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		result = append(result, email)
	}
	return result
}

func rosterFromDescription(description string) []string {
	emails := make([]string, 0)
	for _, line := range strings.Split(description, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		for _, prefix := range rosterPrefixes {
			if !strings.HasPrefix(lower, prefix) {
				continue
			}
			rest := strings.TrimSpace(line[len(prefix):])
			for _, entry := range strings.Split(rest, ",") {
				entry = strings.TrimSpace(entry)
				if strings.Contains(entry, "@") {
					emails = append(emails, entry)
				}
			}
		}
	}
	return emails
}

func rosterFromAttendees(event calendar.Event, catalog *config.Catalog) []string {
	emails := make([]string, 0, len(event.Attendees)+1)
	if organizer := calendar.ResolveOrganizer(event, catalog.IsRoomResource); organizer.Email != "" {
		emails = append(emails, organizer.Email)
	}
	for _, attendee := range event.Attendees {
		if attendee.Resource || attendee.ResponseStatus == "declined" {
			continue
		}
		emails = append(emails, attendee.Email)
	}
	return emails
}
