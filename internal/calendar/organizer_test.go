package calendar

import "testing"

func isResource(emails ...string) func(string) bool {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		set[email] = struct{}{}
	}
	return func(email string) bool {
		_, ok := set[email]
		return ok
	}
}

func TestResolveOrganizer(t *testing.T) {
	t.Run("organizer field wins", func(t *testing.T) {
		event := Event{
			Organizer: &Person{Email: "alice@example.com", DisplayName: "Alice"},
			Creator:   &Person{Email: "bob@example.com", DisplayName: "Bob"},
		}

		got := ResolveOrganizer(event, nil)
		if got.Email != "alice@example.com" || got.Name != "Alice" {
			t.Fatalf("unexpected organizer: %+v", got)
		}
	})

	t.Run("room organizer falls through to creator", func(t *testing.T) {
		event := Event{
			Organizer: &Person{Email: "balam@resource.example.com", DisplayName: "Room Balam"},
			Creator:   &Person{Email: "bob@example.com", DisplayName: "Bob"},
		}

		got := ResolveOrganizer(event, isResource("balam@resource.example.com"))
		if got.Email != "bob@example.com" || got.Name != "Bob" {
			t.Fatalf("unexpected organizer: %+v", got)
		}
	})

	t.Run("first human non-declined attendee is the last resort", func(t *testing.T) {
		event := Event{
			Attendees: []Attendee{
				{Email: "balam@resource.example.com", Resource: true},
				{Email: "carol@example.com", ResponseStatus: "declined"},
				{Email: "dave.jones@example.com", ResponseStatus: "accepted"},
			},
		}

		got := ResolveOrganizer(event, isResource("balam@resource.example.com"))
		if got.Email != "dave.jones@example.com" {
			t.Fatalf("expected dave.jones@example.com, got %q", got.Email)
		}
		if got.Name != "Dave Jones" {
			t.Fatalf("expected humanized name, got %q", got.Name)
		}
	})

	t.Run("empty event yields empty organizer", func(t *testing.T) {
		got := ResolveOrganizer(Event{}, nil)
		if got.Email != "" || got.Name != "" {
			t.Fatalf("expected zero organizer, got %+v", got)
		}
	})
}

func TestHumanizeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ana.garcia@example.com", "Ana Garcia"},
		{"bob_smith@example.com", "Bob Smith"},
		{"carol-lee@example.com", "Carol Lee"},
		{"dave@example.com", "Dave"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := HumanizeEmail(tc.in); got != tc.want {
			t.Fatalf("HumanizeEmail(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
