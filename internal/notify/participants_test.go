package notify

import (
	"reflect"
	"testing"

	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/testfixtures"
)

func TestParticipants(t *testing.T) {
	catalog := testfixtures.NewCatalog()

	t.Run("attendee roster minus rooms and declines", func(t *testing.T) {
		event := testfixtures.NewEvent(
			testfixtures.WithEventOrganizer("alice@example.com", "Alice"),
			testfixtures.WithEventAttendees(
				calendar.Attendee{Email: "balam@resource.example.com", Resource: true},
				calendar.Attendee{Email: "Bob@Example.com", ResponseStatus: "accepted"},
				calendar.Attendee{Email: "carol@example.com", ResponseStatus: "declined"},
				calendar.Attendee{Email: "alice@example.com", ResponseStatus: "accepted"},
			),
		)

		got := Participants(event, catalog)
		want := []string{"alice@example.com", "bob@example.com"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("description roster takes precedence", func(t *testing.T) {
		event := testfixtures.NewEvent(
			testfixtures.WithEventOrganizer("alice@example.com", "Alice"),
			testfixtures.WithEventAttendees(
				calendar.Attendee{Email: "bob@example.com", ResponseStatus: "accepted"},
			),
			testfixtures.WithEventDescription("Agenda\nParticipants: dave@example.com, erin@example.com\nnotes"),
		)

		got := Participants(event, catalog)
		want := []string{"dave@example.com", "erin@example.com"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("owners lines count as a roster too", func(t *testing.T) {
		event := testfixtures.NewEvent(
			testfixtures.WithEventDescription("owners: frank@example.com"),
		)

		got := Participants(event, catalog)
		if len(got) != 1 || got[0] != "frank@example.com" {
			t.Fatalf("expected the owners roster, got %v", got)
		}
	})

	t.Run("roster entries without an address are ignored", func(t *testing.T) {
		event := testfixtures.NewEvent(
			testfixtures.WithEventOrganizer("alice@example.com", "Alice"),
			testfixtures.WithEventDescription("participants: everyone, the whole team"),
		)

		// The roster line had no usable entries, so the attendee path applies.
		got := Participants(event, catalog)
		if len(got) != 1 || got[0] != "alice@example.com" {
			t.Fatalf("expected fallback to the organizer, got %v", got)
		}
	})

	t.Run("room resources never receive confirmations", func(t *testing.T) {
		event := testfixtures.NewEvent(
			testfixtures.WithEventDescription("participants: mir@resource.example.com, gina@example.com"),
		)

		got := Participants(event, catalog)
		if len(got) != 1 || got[0] != "gina@example.com" {
			t.Fatalf("expected the room filtered out, got %v", got)
		}
	})
}
