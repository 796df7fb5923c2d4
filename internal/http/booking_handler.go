package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/timegrid"
)

type bookingService interface {
	BookRoom(ctx context.Context, principal application.Principal, params application.BookRoomParams) (application.BookRoomResult, error)
	AssignRoom(ctx context.Context, principal application.Principal, params application.AssignRoomParams) (application.AssignRoomResult, error)
	CancelBooking(ctx context.Context, principal application.Principal, eventID string) error
	TodayBookings(ctx context.Context, principal application.Principal) ([]application.Booking, error)
	UpcomingRoomSuggestions(ctx context.Context, principal application.Principal) ([]application.EventRoomSuggestion, error)
}

// BookingHandler serves the reservation lifecycle endpoints.
type BookingHandler struct {
	service   bookingService
	loc       *time.Location
	responder responder
}

// NewBookingHandler wires the booking endpoints.
func NewBookingHandler(service bookingService, loc *time.Location, logger *slog.Logger) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{service: service, loc: loc, responder: newResponder(logger)}
}

type bookRequest struct {
	Room       string `json:"room"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	GuestEmail string `json:"guest_email"`
}

type assignRequest struct {
	EventID string `json:"event_id"`
	Room    string `json:"room"`
}

// Create books a room. A recheck conflict is a normal outcome, reported with
// 200 and the nearest alternative rather than an error status.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, startOK := h.parseTime(req.Start)
	end, endOK := h.parseTime(req.End)
	if !startOK || !endOK {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.BookRoom(r.Context(), principal, application.BookRoomParams{
		RoomKey:    req.Room,
		Title:      req.Title,
		Start:      start,
		End:        end,
		GuestEmail: req.GuestEmail,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if result.Conflict {
		payload := bookResponse{Conflict: true}
		if result.Alternative != nil {
			alternative := suggestionDTO{
				Room:  result.Alternative.Room,
				Label: result.Alternative.Label,
				Start: result.Alternative.StartISO,
				End:   result.Alternative.EndISO,
				Slots: result.Alternative.Slots,
			}
			payload.Alternative = &alternative
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
		return
	}

	booking := toBookingDTO(result.Booking)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookResponse{Booking: &booking})
}

// Assign attaches a room to an existing event.
func (h *BookingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.AssignRoom(r.Context(), principal, application.AssignRoomParams{
		EventID: req.EventID,
		RoomKey: req.Room,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	payload := assignResponse{Status: "booked"}
	switch {
	case result.AlreadyAssigned:
		payload.Status = "already_assigned"
	case result.Conflict:
		payload.Status = "conflict"
		payload.Reason = result.Reason
	}
	if !result.Conflict {
		booking := toBookingDTO(result.Booking)
		payload.Booking = &booking
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

// Delete cancels a booking the principal organized.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.CancelBooking(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Today lists the principal's bookings for the current day.
func (h *BookingHandler) Today(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bookings, err := h.service.TodayBookings(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingListResponse{Bookings: toBookingDTOs(bookings)})
}

// Suggestions lists upcoming events without a room plus the rooms free for
// each window.
func (h *BookingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	suggestions, err := h.service.UpcomingRoomSuggestions(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if limit := parseIntParam(r.URL.Query(), "limit"); limit > 0 && limit < len(suggestions) {
		suggestions = suggestions[:limit]
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, suggestionListResponse{
		Events: toEventSuggestionDTOs(suggestions),
	})
}

// parseTime accepts both the grid's local wall-clock format and RFC 3339.
func (h *BookingHandler) parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if parsed, err := time.ParseInLocation("2006-01-02T15:04:05", value, h.loc); err == nil {
		return parsed, true
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	return time.Time{}, false
}

type bookResponse struct {
	Conflict    bool           `json:"conflict,omitempty"`
	Alternative *suggestionDTO `json:"alternative,omitempty"`
	Booking     *bookingDTO    `json:"booking,omitempty"`
}

type assignResponse struct {
	Status  string      `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	Booking *bookingDTO `json:"booking,omitempty"`
}

type bookingListResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type suggestionListResponse struct {
	Events []eventSuggestionDTO `json:"events"`
}

type bookingDTO struct {
	EventID   string `json:"event_id"`
	Room      string `json:"room"`
	RoomLabel string `json:"room_label"`
	Title     string `json:"title"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Organizer string `json:"organizer,omitempty"`
	HTMLLink  string `json:"html_link,omitempty"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	return bookingDTO{
		EventID:   booking.EventID,
		Room:      booking.RoomKey,
		RoomLabel: booking.RoomLabel,
		Title:     booking.Title,
		Start:     timegrid.FormatLocal(booking.Start),
		End:       timegrid.FormatLocal(booking.End),
		Organizer: booking.OrganizerName,
		HTMLLink:  booking.HTMLLink,
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}
