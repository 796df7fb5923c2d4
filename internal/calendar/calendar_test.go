package calendar

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{
			name:   "partial overlap",
			aStart: base, aEnd: base.Add(2 * time.Hour),
			bStart: base.Add(time.Hour), bEnd: base.Add(3 * time.Hour),
			want: true,
		},
		{
			name:   "containment",
			aStart: base, aEnd: base.Add(3 * time.Hour),
			bStart: base.Add(time.Hour), bEnd: base.Add(2 * time.Hour),
			want: true,
		},
		{
			name:   "touching boundaries are disjoint",
			aStart: base, aEnd: base.Add(time.Hour),
			bStart: base.Add(time.Hour), bEnd: base.Add(2 * time.Hour),
			want: false,
		},
		{
			name:   "fully disjoint",
			aStart: base, aEnd: base.Add(time.Hour),
			bStart: base.Add(3 * time.Hour), bEnd: base.Add(4 * time.Hour),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAnyOverlap(t *testing.T) {
	base := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	blocks := []BusyBlock{
		{Start: base, End: base.Add(time.Hour)},
		{Start: base.Add(4 * time.Hour), End: base.Add(5 * time.Hour)},
	}

	if !AnyOverlap(base.Add(30*time.Minute), base.Add(90*time.Minute), blocks) {
		t.Fatal("expected overlap with the first block")
	}
	if AnyOverlap(base.Add(time.Hour), base.Add(2*time.Hour), blocks) {
		t.Fatal("expected no overlap in the free window")
	}
	if AnyOverlap(base, base.Add(time.Hour), nil) {
		t.Fatal("expected no overlap with no blocks")
	}
}

func TestEventHelpers(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		if (Event{Status: "confirmed"}).Cancelled() {
			t.Fatal("confirmed event reported cancelled")
		}
		if !(Event{Status: "cancelled"}).Cancelled() {
			t.Fatal("cancelled event not reported cancelled")
		}
	})

	t.Run("has attendee", func(t *testing.T) {
		event := Event{Attendees: []Attendee{
			{Email: "alice@example.com"},
			{Email: "balam@resource.example.com", Resource: true},
		}}

		if !event.HasAttendee("balam@resource.example.com") {
			t.Fatal("expected resource attendee to be found")
		}
		if event.HasAttendee("bob@example.com") {
			t.Fatal("unexpected attendee match")
		}
	})
}
