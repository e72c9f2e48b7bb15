package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/room-reservations/internal/application"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	Cancel(ctx context.Context, identity *application.Identity, id string) error
}

type requesterQueries interface {
	ListMine(ctx context.Context, identity *application.Identity) ([]application.Reservation, error)
}

// BookingHandler serves the requester-facing /bookings routes.
type BookingHandler struct {
	handlerBase
	reservations reservationService
	queries      requesterQueries
}

func NewBookingHandler(reservations reservationService, queries requesterQueries, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{handlerBase: newHandlerBase("BookingHandler", logger), reservations: reservations, queries: queries}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "Create", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode booking", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	reservation, err := h.reservations.Create(ctx, application.CreateReservationParams{
		Identity: IdentityFromContext(ctx),
		Input: application.ReservationInput{
			RoomID:         req.RoomID,
			Date:           req.Date,
			Slot:           req.Slot,
			Duration:       req.Duration,
			RequesterName:  req.Name,
			RequesterEmail: req.Email,
			Purpose:        req.Purpose,
		},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", "/bookings/"+reservation.ID)
	h.responder.writeJSON(ctx, w, http.StatusCreated, toReservationDTO(reservation))
}

func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservations, err := h.queries.ListMine(ctx, IdentityFromContext(ctx))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.reservations.Cancel(ctx, IdentityFromContext(ctx), mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}
