package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/store"
)

const (
	// watermarkPropertyKey stores the start instant of the last completed
	// scan, so the next run only inspects recently updated events.
	watermarkPropertyKey = "last_booking_scan_iso"

	// fallbackLookback bounds the first scan (or a scan after watermark
	// loss) instead of walking the whole calendar history.
	fallbackLookback = 10 * time.Minute

	// pastCutoff keeps the scanner from confirming bookings that already
	// started more than a few minutes ago.
	pastCutoff = 15 * time.Minute

	// scanHorizon bounds how far ahead a booking may start and still get a
	// confirmation from the scanner.
	scanHorizon = 14 * 24 * time.Hour
)

// Scanner sweeps the room calendars for bookings that never received a
// confirmation, typically ones created directly in the calendar UI rather
// than through this service. It is the retry path for failed deliveries as
// well: anything unconfirmed and still upcoming is picked up again.
type Scanner struct {
	cal     calendar.Client
	catalog *config.Catalog
	service *Service
	props   store.Properties
	office  application.OfficeHours
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
}

// NewScanner wires the confirmation scanner.
func NewScanner(cal calendar.Client, catalog *config.Catalog, service *Service, props store.Properties, office application.OfficeHours, loc *time.Location, logger *slog.Logger, now func() time.Time) *Scanner {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		cal:     cal,
		catalog: catalog,
		service: service,
		props:   props,
		office:  office,
		loc:     loc,
		logger:  logger,
		now:     now,
	}
}

// Run executes one scan pass. The watermark only advances after the pass
// completes, so a crashed run is re-covered by the next one; per-room
// listing failures are logged and skipped without blocking other rooms.
func (s *Scanner) Run(ctx context.Context) error {
	now := s.now()
	logger := s.logger.With("service", "notify", "operation", "scan")

	if !s.office.Contains(now.In(s.loc)) {
		logger.Debug("outside office hours, scan skipped")
		return nil
	}

	watermark := s.loadWatermark(ctx, now)
	logger.Debug("scan started", "updated_since", watermark)

	candidates := s.collect(ctx, logger, watermark, now)
	s.confirm(ctx, logger, candidates, now)

	if err := s.props.SetProperty(ctx, watermarkPropertyKey, now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("advance scan watermark: %w", err)
	}
	return nil
}

type candidate struct {
	event calendar.Event
	room  config.Room
}

func (s *Scanner) collect(ctx context.Context, logger *slog.Logger, watermark, now time.Time) []candidate {
	candidates := make([]candidate, 0)
	for _, room := range s.catalog.Rooms() {
		events, err := s.cal.ListEvents(ctx, room.CalendarID, calendar.ListOptions{
			TimeMin:           now.Add(-pastCutoff),
			TimeMax:           now.Add(scanHorizon),
			UpdatedMin:        watermark,
			SingleOccurrences: true,
			OrderByStart:      true,
		})
		if err != nil {
			logger.Warn("room scan failed, skipping room", "room", room.Key, "error", err)
			continue
		}
		for _, event := range events {
			if event.Cancelled() || event.AllDay {
				continue
			}
			if event.Start.Before(now.Add(-pastCutoff)) {
				continue
			}
			candidates = append(candidates, candidate{event: event, room: room})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].event.Start.Before(candidates[j].event.Start)
	})
	return candidates
}

// confirm walks the batch in start order. Recurrence siblings collapse onto
// one confirmation: after the first unconfirmed instance of a base id is
// handled, later instances in the same batch are recorded as sent without
// another message. The ledger check runs first, so an instance that was
// already confirmed in an earlier scan never claims the base id for its
// still-unconfirmed siblings.
func (s *Scanner) confirm(ctx context.Context, logger *slog.Logger, candidates []candidate, now time.Time) {
	seenBase := make(map[string]struct{}, len(candidates))
	for _, item := range candidates {
		event := item.event
		base := calendar.BaseEventID(event.ID)

		if s.service.ledger.IsSent(ctx, event.ID) {
			continue
		}
		if _, ok := seenBase[base]; ok {
			s.service.markWithoutDelivery(ctx, event.ID, event.Start)
			continue
		}
		seenBase[base] = struct{}{}

		organizer := calendar.ResolveOrganizer(event, s.catalog.IsRoomResource)
		booking := application.Booking{
			EventID:        event.ID,
			RoomKey:        item.room.Key,
			RoomLabel:      item.room.Label,
			Title:          event.Summary,
			Start:          event.Start,
			End:            event.End,
			OrganizerEmail: organizer.Email,
			OrganizerName:  organizer.Name,
			Participants:   Participants(event, s.catalog),
			HTMLLink:       event.HTMLLink,
		}

		if err := s.service.BookingCreated(ctx, booking); err != nil {
			logger.Warn("confirmation attempt failed, left unsent for retry", "event_id", event.ID, "error", err)
		}
	}
}

func (s *Scanner) loadWatermark(ctx context.Context, now time.Time) time.Time {
	fallback := now.Add(-fallbackLookback)

	raw, err := s.props.GetProperty(ctx, watermarkPropertyKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("scan watermark read failed, using lookback", "error", err)
		}
		return fallback
	}
	watermark, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Warn("scan watermark corrupted, using lookback", "error", err)
		return fallback
	}
	return watermark
}
