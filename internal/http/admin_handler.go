package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/room-reservations/internal/application"
)

type adminReservations interface {
	SetStatus(ctx context.Context, params application.SetStatusParams) (application.Reservation, error)
	Delete(ctx context.Context, identity *application.Identity, id string) error
}

type adminQueries interface {
	ListAll(ctx context.Context, identity *application.Identity, filter application.ListFilter) ([]application.Reservation, error)
}

// AdminHandler serves the /admin/bookings routes.
type AdminHandler struct {
	handlerBase
	reservations adminReservations
	queries      adminQueries
	now          func() time.Time
}

func NewAdminHandler(reservations adminReservations, queries adminQueries, now func() time.Time, logger *slog.Logger) *AdminHandler {
	if now == nil {
		now = time.Now
	}
	return &AdminHandler{handlerBase: newHandlerBase("AdminHandler", logger), reservations: reservations, queries: queries, now: now}
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservations, err := h.queries.ListAll(ctx, IdentityFromContext(ctx), listFilterFromQuery(r))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "SetStatus", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode status", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	reservation, err := h.reservations.SetStatus(ctx, application.SetStatusParams{
		Identity:      IdentityFromContext(ctx),
		ReservationID: mux.Vars(r)["id"],
		Status:        application.ReservationStatus(req.Status),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, toReservationDTO(reservation))
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.reservations.Delete(ctx, IdentityFromContext(ctx), mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// Export downloads the filtered listing as CSV.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reservations, err := h.queries.ListAll(ctx, IdentityFromContext(ctx), listFilterFromQuery(r))
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", application.ExportFileName(h.now())))
	w.WriteHeader(http.StatusOK)
	if err := application.WriteCSV(w, application.ToTable(reservations)); err != nil {
		h.log(ctx, "Export").ErrorContext(ctx, "failed to stream export", "error", err)
	}
}

func listFilterFromQuery(r *http.Request) application.ListFilter {
	query := r.URL.Query()
	return application.ListFilter{Date: query.Get("date"), Email: query.Get("email")}
}
