package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/timegrid"
)

type gridService interface {
	WeekGrid(ctx context.Context, params application.WeekGridParams) (application.WeekGrid, error)
	NextGap(ctx context.Context, params application.NextGapParams) (availability.Gap, bool, error)
}

type dashboardService interface {
	Dashboard(ctx context.Context, principal application.Principal) (application.Dashboard, error)
}

// GridHandler serves the weekly availability views.
type GridHandler struct {
	grid      gridService
	dashboard dashboardService
	loc       *time.Location
	responder responder
}

// NewGridHandler wires the grid endpoints.
func NewGridHandler(grid gridService, dashboard dashboardService, loc *time.Location, logger *slog.Logger) *GridHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &GridHandler{grid: grid, dashboard: dashboard, loc: loc, responder: newResponder(logger)}
}

// Week renders the availability grid for the requested week.
func (h *GridHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.grid == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	params := application.WeekGridParams{
		Reference:     h.parseDate(query.Get("week_start")),
		SlotMinutes:   parseIntParam(query, "slot_min"),
		WorkStartHour: parseIntParam(query, "work_start"),
		WorkEndHour:   parseIntParam(query, "work_end"),
	}

	grid, err := h.grid.WeekGrid(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGridResponse(grid))
}

// NextGap searches one room for the next run of free slots.
func (h *GridHandler) NextGap(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.grid == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	params := application.NextGapParams{
		Reference:   h.parseDate(query.Get("week_start")),
		SlotMinutes: parseIntParam(query, "slot_min"),
		RoomKey:     query.Get("room"),
		StartColumn: parseIntParam(query, "start_col"),
		Slots:       parseIntParam(query, "steps"),
	}

	gap, found, err := h.grid.NextGap(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := nextGapResponse{Found: found}
	if found {
		payload.Gap = &gapDTO{Index: gap.Index, Start: gap.StartISO, End: gap.EndISO}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Dashboard renders the acting user's landing page data.
func (h *GridHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.dashboard == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	dashboard, err := h.dashboard.Dashboard(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toDashboardResponse(dashboard))
}

func (h *GridHandler) parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, h.loc)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func parseIntParam(query url.Values, name string) int {
	value, err := strconv.Atoi(query.Get(name))
	if err != nil {
		return 0
	}
	return value
}

type gridResponse struct {
	WeekStart   string          `json:"week_start"`
	WeekEnd     string          `json:"week_end"`
	SlotMinutes int             `json:"slot_minutes"`
	SlotsPerDay int             `json:"slots_per_day"`
	Days        []dayDTO        `json:"days"`
	Rows        []rowDTO        `json:"rows"`
	Suggestions []suggestionDTO `json:"suggestions"`
}

type dayDTO struct {
	Label   string      `json:"label"`
	Columns []columnDTO `json:"columns"`
}

type columnDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

type rowDTO struct {
	Room  string    `json:"room"`
	Label string    `json:"label"`
	Cells []cellDTO `json:"cells"`
}

type cellDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Busy      bool   `json:"busy"`
	Peek      string `json:"peek,omitempty"`
	HoverUser string `json:"hover_user,omitempty"`
}

type suggestionDTO struct {
	Room  string `json:"room"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
	Slots int    `json:"slots"`
}

type nextGapResponse struct {
	Found bool    `json:"found"`
	Gap   *gapDTO `json:"gap,omitempty"`
}

type gapDTO struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type dashboardResponse struct {
	Today    []bookingDTO         `json:"today"`
	Upcoming []eventSuggestionDTO `json:"upcoming"`
}

type eventSuggestionDTO struct {
	EventID        string          `json:"event_id"`
	Title          string          `json:"title"`
	Start          string          `json:"start"`
	End            string          `json:"end"`
	AvailableRooms []roomOptionDTO `json:"available_rooms"`
}

type roomOptionDTO struct {
	Room  string `json:"room"`
	Label string `json:"label"`
}

func toGridResponse(grid application.WeekGrid) gridResponse {
	days := make([]dayDTO, 0, len(grid.Week.Days))
	for _, day := range grid.Week.Days {
		columns := make([]columnDTO, 0, len(day.Columns))
		for _, column := range day.Columns {
			columns = append(columns, columnDTO{Start: column.StartISO, End: column.EndISO, Label: column.Label})
		}
		days = append(days, dayDTO{Label: day.Label, Columns: columns})
	}

	rows := make([]rowDTO, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		cells := make([]cellDTO, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cellDTO{
				Start:     cell.StartISO,
				End:       cell.EndISO,
				Busy:      cell.Busy,
				Peek:      cell.Peek,
				HoverUser: cell.HoverUser,
			})
		}
		rows = append(rows, rowDTO{Room: row.Room, Label: row.Label, Cells: cells})
	}

	return gridResponse{
		WeekStart:   timegrid.FormatLocal(grid.Week.Start),
		WeekEnd:     timegrid.FormatLocal(grid.Week.End),
		SlotMinutes: grid.Week.SlotMinutes,
		SlotsPerDay: grid.Week.SlotsPerDay,
		Days:        days,
		Rows:        rows,
		Suggestions: toSuggestionDTOs(grid.Suggestions),
	}
}

func toSuggestionDTOs(suggestions []availability.Suggestion) []suggestionDTO {
	out := make([]suggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, suggestionDTO{
			Room:  suggestion.Room,
			Label: suggestion.Label,
			Start: suggestion.StartISO,
			End:   suggestion.EndISO,
			Slots: suggestion.Slots,
		})
	}
	return out
}

func toDashboardResponse(dashboard application.Dashboard) dashboardResponse {
	return dashboardResponse{
		Today:    toBookingDTOs(dashboard.Today),
		Upcoming: toEventSuggestionDTOs(dashboard.Upcoming),
	}
}

func toEventSuggestionDTOs(suggestions []application.EventRoomSuggestion) []eventSuggestionDTO {
	out := make([]eventSuggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		rooms := make([]roomOptionDTO, 0, len(suggestion.AvailableRooms))
		for _, room := range suggestion.AvailableRooms {
			rooms = append(rooms, roomOptionDTO{Room: room.Key, Label: room.Label})
		}
		out = append(out, eventSuggestionDTO{
			EventID:        suggestion.EventID,
			Title:          suggestion.Title,
			Start:          timegrid.FormatLocal(suggestion.Start),
			End:            timegrid.FormatLocal(suggestion.End),
			AvailableRooms: rooms,
		})
	}
	return out
}
