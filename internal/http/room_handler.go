package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/slot"
)

type roomCatalog interface {
	ListRooms(ctx context.Context) ([]application.Room, error)
}

type occupancyQueries interface {
	ListForRoom(ctx context.Context, roomID, date string) ([]application.Reservation, error)
	Availability(ctx context.Context, date string) ([]application.RoomAvailability, error)
}

// RoomHandler serves the public catalog and occupancy views.
type RoomHandler struct {
	handlerBase
	rooms   roomCatalog
	queries occupancyQueries
}

func NewRoomHandler(rooms roomCatalog, queries occupancyQueries, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{handlerBase: newHandlerBase("RoomHandler", logger), rooms: rooms, queries: queries}
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rooms, err := h.rooms.ListRooms(ctx)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	dtos := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, dtos)
}

func (h *RoomHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, ok := h.requireDate(w, r)
	if !ok {
		return
	}

	reservations, err := h.queries.ListForRoom(ctx, mux.Vars(r)["id"], date)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, ok := h.requireDate(w, r)
	if !ok {
		return
	}

	grid, err := h.queries.Availability(ctx, date)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toAvailabilityDTOs(grid))
}

// Slots lists the bookable start hours with their labels.
func (h *RoomHandler) Slots(w http.ResponseWriter, r *http.Request) {
	hours := slot.Enumerate()
	dtos := make([]slotDTO, 0, len(hours))
	for _, hour := range hours {
		dtos = append(dtos, slotDTO{Slot: hour, Label: slot.Label(hour), MaxDuration: slot.MaxDuration(hour)})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dtos)
}

func (h *RoomHandler) requireDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeFieldErrors(r.Context(), w, map[string]string{"date": translateValidationMessage("date is required")})
		return "", false
	}
	return date, true
}
