package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/slack"
	"github.com/example/room-booking/internal/testfixtures"
)

type postedMessage struct {
	channelID string
	message   slack.Message
}

type chatStub struct {
	mu        sync.Mutex
	userIDs   map[string]string
	lookupErr error
	openErr   error
	postErr   error
	posted    []postedMessage
}

func (c *chatStub) UserIDByEmail(ctx context.Context, email string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookupErr != nil {
		return "", c.lookupErr
	}
	userID, ok := c.userIDs[email]
	if !ok {
		return "", slack.ErrUserNotFound
	}
	return userID, nil
}

func (c *chatStub) OpenDirectChannel(ctx context.Context, userID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return "", c.openErr
	}
	return "D-" + userID, nil
}

func (c *chatStub) PostMessage(ctx context.Context, channelID string, msg slack.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.postErr != nil {
		return c.postErr
	}
	c.posted = append(c.posted, postedMessage{channelID: channelID, message: msg})
	return nil
}

func (c *chatStub) messages() []postedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]postedMessage, len(c.posted))
	copy(out, c.posted)
	return out
}

func testBooking() application.Booking {
	start := testfixtures.ReferenceTime()
	return application.Booking{
		EventID:        "evt-1",
		RoomKey:        "balam",
		RoomLabel:      "Room Balam · 9 people",
		Title:          "Team sync",
		Start:          start,
		End:            start.Add(time.Hour),
		OrganizerEmail: "alice@example.com",
		OrganizerName:  "Alice",
		Participants:   []string{"alice@example.com", "bob@example.com"},
	}
}

func newTestService(chat Chat, adminID string) *Service {
	ledger := newTestLedger(newPropsStub(), testfixtures.NewClock(time.Time{}).NowFunc())
	return NewService(chat, testfixtures.NewCatalog(), ledger, time.UTC, "https://booking.example.com", adminID, "", nil)
}

func TestService_BookingCreated(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to every participant exactly once", func(t *testing.T) {
		chat := &chatStub{userIDs: map[string]string{
			"alice@example.com": "U-alice",
			"bob@example.com":   "U-bob",
		}}
		svc := newTestService(chat, "")

		if err := svc.BookingCreated(ctx, testBooking()); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}
		if got := len(chat.messages()); got != 2 {
			t.Fatalf("expected 2 messages, got %d", got)
		}

		// Same booking again: the ledger must suppress the duplicate.
		if err := svc.BookingCreated(ctx, testBooking()); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}
		if got := len(chat.messages()); got != 2 {
			t.Fatalf("expected no further messages, got %d", got)
		}
	})

	t.Run("participants without a chat account are skipped", func(t *testing.T) {
		chat := &chatStub{userIDs: map[string]string{"alice@example.com": "U-alice"}}
		svc := newTestService(chat, "")

		if err := svc.BookingCreated(ctx, testBooking()); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}
		messages := chat.messages()
		if len(messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(messages))
		}
		if messages[0].channelID != "D-U-alice" {
			t.Fatalf("unexpected channel %q", messages[0].channelID)
		}
		if !svc.ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected booking marked sent")
		}
	})

	t.Run("total delivery failure leaves the booking unsent", func(t *testing.T) {
		chat := &chatStub{
			userIDs: map[string]string{
				"alice@example.com": "U-alice",
				"bob@example.com":   "U-bob",
			},
			postErr: errors.New("chat down"),
		}
		svc := newTestService(chat, "")

		if err := svc.BookingCreated(ctx, testBooking()); err == nil {
			t.Fatal("expected error when nothing was delivered")
		}
		if svc.ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected booking left unsent for retry")
		}
	})

	t.Run("no reachable participants still marks sent", func(t *testing.T) {
		chat := &chatStub{}
		svc := newTestService(chat, "")

		if err := svc.BookingCreated(ctx, testBooking()); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}
		if !svc.ledger.IsSent(ctx, "evt-1") {
			t.Fatal("expected booking marked sent with no reachable recipients")
		}
	})

	t.Run("audit goes to the admin direct channel", func(t *testing.T) {
		chat := &chatStub{userIDs: map[string]string{"alice@example.com": "U-alice"}}
		svc := newTestService(chat, "U-admin")

		booking := testBooking()
		booking.Participants = []string{"alice@example.com"}
		if err := svc.BookingCreated(ctx, booking); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}

		messages := chat.messages()
		if len(messages) != 2 {
			t.Fatalf("expected confirmation plus audit, got %d", len(messages))
		}
		audit := messages[1]
		if audit.channelID != "D-U-admin" {
			t.Fatalf("unexpected audit channel %q", audit.channelID)
		}
		if !strings.Contains(audit.message.Text, "Team sync") {
			t.Fatalf("unexpected audit text %q", audit.message.Text)
		}
	})

	t.Run("empty event ids and missing chat are no-ops", func(t *testing.T) {
		chat := &chatStub{}
		svc := newTestService(chat, "")

		booking := testBooking()
		booking.EventID = ""
		if err := svc.BookingCreated(ctx, booking); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}

		disabled := newTestService(nil, "")
		if err := disabled.BookingCreated(ctx, testBooking()); err != nil {
			t.Fatalf("BookingCreated returned error: %v", err)
		}
		if len(chat.messages()) != 0 {
			t.Fatal("expected no messages")
		}
	})
}
