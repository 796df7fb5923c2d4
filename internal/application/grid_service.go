package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/calendar"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/timegrid"
)

// GridService builds the weekly availability grid and the derived gap views.
type GridService struct {
	cal     calendar.Client
	catalog *config.Catalog
	opts    timegrid.Options
	logger  *slog.Logger
	now     func() time.Time
}

// NewGridService wires dependencies for grid operations.
func NewGridService(cal calendar.Client, catalog *config.Catalog, opts timegrid.Options, logger *slog.Logger, now func() time.Time) *GridService {
	if now == nil {
		now = time.Now
	}
	return &GridService{
		cal:     cal,
		catalog: catalog,
		opts:    opts.Normalize(),
		logger:  logger,
		now:     now,
	}
}

// WeekGrid assembles the availability grid for the week containing the
// reference time. The busy state of every cell comes from the free/busy
// aggregate; the per-room event lists only annotate busy cells, so a failed
// event fetch degrades that room to unannotated busy cells instead of
// failing the grid.
func (s *GridService) WeekGrid(ctx context.Context, params WeekGridParams) (WeekGrid, error) {
	if s == nil {
		return WeekGrid{}, fmt.Errorf("GridService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "grid", "week_grid")

	week, rows, err := s.buildRows(ctx, logger, params)
	if err != nil {
		return WeekGrid{}, err
	}

	return WeekGrid{
		Week:        week,
		Rows:        rows,
		Suggestions: availability.BuildSuggestions(rows),
	}, nil
}

// NextGap searches one room's row for the first window of consecutive free
// slots at or after the starting column.
func (s *GridService) NextGap(ctx context.Context, params NextGapParams) (availability.Gap, bool, error) {
	if s == nil {
		return availability.Gap{}, false, fmt.Errorf("GridService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "grid", "next_gap", "room", params.RoomKey)

	if _, ok := s.catalog.Room(params.RoomKey); !ok {
		return availability.Gap{}, false, ErrNotFound
	}
	if params.Slots <= 0 {
		vErr := &ValidationError{}
		vErr.add("slots", "slot count must be positive")
		return availability.Gap{}, false, vErr
	}

	_, rows, err := s.buildRows(ctx, logger, WeekGridParams{
		Reference:   params.Reference,
		SlotMinutes: params.SlotMinutes,
	})
	if err != nil {
		return availability.Gap{}, false, err
	}

	for _, row := range rows {
		if row.Room != params.RoomKey {
			continue
		}
		gap, found := availability.NextGap(row.Cells, params.StartColumn, params.Slots)
		return gap, found, nil
	}
	return availability.Gap{}, false, ErrNotFound
}

// AvailableRooms returns the rooms whose calendars report no busy overlap
// with the window.
func (s *GridService) AvailableRooms(ctx context.Context, start, end time.Time) ([]RoomOption, error) {
	if s == nil {
		return nil, fmt.Errorf("GridService is nil")
	}
	if !start.Before(end) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return nil, vErr
	}

	busyByCalendar, err := s.cal.FreeBusy(ctx, start, end, s.catalog.CalendarIDs())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	options := make([]RoomOption, 0)
	for _, room := range s.catalog.Rooms() {
		if calendar.AnyOverlap(start, end, busyByCalendar[room.CalendarID]) {
			continue
		}
		options = append(options, RoomOption{Key: room.Key, Label: room.Label})
	}
	return options, nil
}

func (s *GridService) buildRows(ctx context.Context, logger *slog.Logger, params WeekGridParams) (timegrid.Week, []availability.RoomRow, error) {
	reference := params.Reference
	if reference.IsZero() {
		reference = s.now()
	}
	opts := s.opts
	if params.SlotMinutes > 0 {
		opts.SlotMinutes = params.SlotMinutes
	}
	if params.WorkStartHour > 0 || params.WorkEndHour > 0 {
		opts.WorkStartHour = params.WorkStartHour
		opts.WorkEndHour = params.WorkEndHour
	}
	opts = opts.Normalize()
	if opts.WorkEndHour <= opts.WorkStartHour {
		vErr := &ValidationError{}
		vErr.add("work_hours", "work start must be before work end")
		return timegrid.Week{}, nil, vErr
	}

	week := timegrid.BuildWeek(reference, opts)

	busyByCalendar, err := s.cal.FreeBusy(ctx, week.Start, week.End, s.catalog.CalendarIDs())
	if err != nil {
		return timegrid.Week{}, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	rows := make([]availability.RoomRow, 0, len(s.catalog.Rooms()))
	for _, room := range s.catalog.Rooms() {
		events := s.roomEvents(ctx, logger, room, week.Start, week.End)
		rows = append(rows, availability.RoomRow{
			Room:       room.Key,
			Label:      room.Label,
			CalendarID: room.CalendarID,
			Cells:      availability.MergeCells(week.Columns, busyByCalendar[room.CalendarID], events),
		})
	}
	return week, rows, nil
}

// roomEvents fetches the annotation events for one room. Failures degrade to
// an empty list; the cell busy state never depends on this call.
func (s *GridService) roomEvents(ctx context.Context, logger *slog.Logger, room config.Room, timeMin, timeMax time.Time) []availability.Event {
	listed, err := s.cal.ListEvents(ctx, room.CalendarID, calendar.ListOptions{
		TimeMin:           timeMin,
		TimeMax:           timeMax,
		SingleOccurrences: true,
		OrderByStart:      true,
	})
	if err != nil {
		logger.Warn("room event fetch failed, cells stay unannotated", "room", room.Key, "error", err)
		return nil
	}

	events := make([]availability.Event, 0, len(listed))
	for _, event := range listed {
		if event.Cancelled() || event.AllDay {
			continue
		}
		organizer := calendar.ResolveOrganizer(event, s.catalog.IsRoomResource)
		events = append(events, availability.Event{
			Start:         event.Start,
			End:           event.End,
			Summary:       event.Summary,
			OrganizerName: organizer.Name,
		})
	}
	return events
}
