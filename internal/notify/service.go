package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/slack"
)

// Chat is the messaging surface consumed by the notifier.
type Chat interface {
	UserIDByEmail(ctx context.Context, email string) (string, error)
	OpenDirectChannel(ctx context.Context, userID string) (string, error)
	PostMessage(ctx context.Context, channelID string, msg slack.Message) error
}

// Service delivers booking confirmations over direct messages, recording
// each delivery in the ledger so a booking is confirmed at most once.
type Service struct {
	chat           Chat
	catalog        *config.Catalog
	ledger         *Ledger
	loc            *time.Location
	appURL         string
	adminID        string
	defaultChannel string
	logger         *slog.Logger
}

// NewService wires the confirmation notifier. adminID is the chat user who
// receives the audit trail; defaultChannel is the shared channel used as the
// audit fallback and as the delivery fallback when no participant could be
// reached directly. Both empty disables auditing.
func NewService(chat Chat, catalog *config.Catalog, ledger *Ledger, loc *time.Location, appURL, adminID, defaultChannel string, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		chat:           chat,
		catalog:        catalog,
		ledger:         ledger,
		loc:            loc,
		appURL:         appURL,
		adminID:        adminID,
		defaultChannel: defaultChannel,
		logger:         logger,
	}
}

// BookingCreated sends the confirmation for a booking unless one was already
// recorded. The sent-record is written only after at least one recipient got
// the message (or there were no reachable recipients at all), so a failed
// delivery stays eligible for the scanner's retry.
func (s *Service) BookingCreated(ctx context.Context, booking application.Booking) error {
	if s == nil || s.chat == nil || booking.EventID == "" {
		return nil
	}
	if s.ledger.IsSent(ctx, booking.EventID) {
		return nil
	}

	delivered, lastErr := s.deliver(ctx, booking)
	if delivered == 0 && lastErr != nil {
		return lastErr
	}

	s.ledger.MarkSent(ctx, booking.EventID, booking.Start)
	s.audit(ctx, booking, delivered)
	return nil
}

// markWithoutDelivery records a booking as confirmed without sending
// anything. Used for recurrence siblings that share a confirmation.
func (s *Service) markWithoutDelivery(ctx context.Context, eventID string, eventStart time.Time) {
	s.ledger.MarkSent(ctx, eventID, eventStart)
}

func (s *Service) deliver(ctx context.Context, booking application.Booking) (int, error) {
	message := ConfirmationMessage(booking, s.loc, s.appURL)

	delivered := 0
	var lastErr error
	for _, email := range booking.Participants {
		if err := s.sendDirect(ctx, email, message); err != nil {
			if errors.Is(err, slack.ErrUserNotFound) {
				s.logger.Debug("no chat account for participant", "email", email)
				continue
			}
			s.logger.Warn("confirmation delivery failed", "email", email, "event_id", booking.EventID, "error", err)
			lastErr = err
			continue
		}
		delivered++
	}
	return delivered, lastErr
}

func (s *Service) sendDirect(ctx context.Context, email string, message slack.Message) error {
	userID, ok := s.catalog.ChatUserID(email)
	if !ok {
		resolved, err := s.chat.UserIDByEmail(ctx, email)
		if err != nil {
			return err
		}
		userID = resolved
	}

	channelID, err := s.chat.OpenDirectChannel(ctx, userID)
	if err != nil {
		return err
	}
	return s.chat.PostMessage(ctx, channelID, message)
}

func (s *Service) audit(ctx context.Context, booking application.Booking, delivered int) {
	s.auditText(ctx, auditMessage(booking, delivered).Text)
}

// auditText posts a plain line to the admin feed. Best effort only.
func (s *Service) auditText(ctx context.Context, text string) {
	if s == nil || s.chat == nil || text == "" {
		return
	}
	channelID := s.defaultChannel
	if s.adminID != "" {
		direct, err := s.chat.OpenDirectChannel(ctx, s.adminID)
		if err != nil {
			s.logger.Warn("audit channel unavailable", "error", err)
		} else {
			channelID = direct
		}
	}
	if channelID == "" {
		return
	}
	if err := s.chat.PostMessage(ctx, channelID, slack.Message{Text: text}); err != nil {
		s.logger.Warn("audit message failed", "error", err)
	}
}
