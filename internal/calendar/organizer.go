package calendar

import (
	"strings"
	"unicode"
)

// Organizer is the human credited with an event, resolved for display.
type Organizer struct {
	Email   string
	Display string
	Name    string
}

// ResolveOrganizer determines the human organizer of an event for display
// purposes. The organizer field wins, then the creator, then the first
// attendee who is neither a room resource nor declined. Entries identifying
// a room resource are skipped at every step. When no display name is found
// the email is humanized as a fallback.
func ResolveOrganizer(event Event, isRoomResource func(email string) bool) Organizer {
	if isRoomResource == nil {
		isRoomResource = func(string) bool { return false }
	}

	var email, display string

	if event.Organizer != nil && !isRoomResource(event.Organizer.Email) {
		email = strings.TrimSpace(event.Organizer.Email)
		display = event.Organizer.DisplayName
	}

	if email == "" && event.Creator != nil && !isRoomResource(event.Creator.Email) {
		email = strings.TrimSpace(event.Creator.Email)
		if display == "" {
			display = event.Creator.DisplayName
		}
	}

	if email == "" {
		for _, attendee := range event.Attendees {
			if attendee.Email == "" || attendee.Resource {
				continue
			}
			if attendee.ResponseStatus == "declined" {
				continue
			}
			if isRoomResource(attendee.Email) {
				continue
			}
			email = strings.TrimSpace(attendee.Email)
			if display == "" {
				display = attendee.DisplayName
			}
			break
		}
	}

	display = strings.TrimSpace(display)
	if display == "" && email != "" {
		if friendly := HumanizeEmail(email); friendly != "" {
			display = friendly
		} else {
			display = email
		}
	}
	if email == "" && display != "" {
		email = display
	}

	name := display
	if name == "" {
		name = HumanizeEmail(email)
	}
	if name == "" {
		name = email
	}

	return Organizer{Email: email, Display: display, Name: name}
}

// HumanizeEmail derives a readable name from an email address local part,
// e.g. "ana.garcia@example.com" becomes "Ana Garcia".
func HumanizeEmail(email string) string {
	if email == "" {
		return ""
	}
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return capitalize(local)
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
