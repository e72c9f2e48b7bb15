package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/room-reservations/internal/slot"
)

// QueryService answers read-only questions about reservations.
type QueryService struct {
	reservations ReservationRepository
	rooms        RoomCatalog
	admins       AdminAuthorizer
	options      ReservationOptions
	logger       *slog.Logger
}

// NewQueryService constructs a query service with the provided dependencies.
func NewQueryService(reservations ReservationRepository, rooms RoomCatalog, admins AdminAuthorizer, options ReservationOptions) *QueryService {
	return NewQueryServiceWithLogger(reservations, rooms, admins, options, nil)
}

// NewQueryServiceWithLogger constructs a query service with a specified logger.
func NewQueryServiceWithLogger(reservations ReservationRepository, rooms RoomCatalog, admins AdminAuthorizer, options ReservationOptions, logger *slog.Logger) *QueryService {
	return &QueryService{
		reservations: reservations,
		rooms:        rooms,
		admins:       admins,
		options:      options,
		logger:       defaultLogger(logger),
	}
}

func (s *QueryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "QueryService", operation, attrs...)
}

func (s *QueryService) ready() error {
	if s == nil {
		return fmt.Errorf("QueryService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}
	return nil
}

// ListForRoom returns the reservations of one room on one date ordered by slot.
func (s *QueryService) ListForRoom(ctx context.Context, roomID, date string) ([]Reservation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.list(ctx, ReservationRepositoryFilter{RoomID: strings.TrimSpace(roomID), Date: strings.TrimSpace(date)})
}

// ListForRequester returns the reservations whose requester email equals
// email exactly, ordered by date then slot.
func (s *QueryService) ListForRequester(ctx context.Context, email string) ([]Reservation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if email == "" {
		return []Reservation{}, nil
	}
	return s.list(ctx, ReservationRepositoryFilter{Email: email})
}

// ListMine returns the signed-in caller's reservations.
func (s *QueryService) ListMine(ctx context.Context, identity *Identity) ([]Reservation, error) {
	if identity.Anonymous() {
		return nil, unauthorized(identity, "list own reservations", "sign-in required")
	}
	return s.ListForRequester(ctx, identity.Email)
}

// ListAll returns every reservation matching filter. Only administrators may
// call it. Date matches exactly and Email is a case-insensitive substring.
func (s *QueryService) ListAll(ctx context.Context, identity *Identity, filter ListFilter) (reservations []Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListAll", "date", filter.Date, "email", filter.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if s.admins == nil {
		err = unauthorized(identity, "list reservations", "no authorization gate configured")
		return
	}
	if err = s.admins.RequireAdmin(ctx, identity); err != nil {
		return
	}

	all, err := s.list(ctx, ReservationRepositoryFilter{Date: strings.TrimSpace(filter.Date)})
	if err != nil {
		return
	}

	needle := strings.ToLower(strings.TrimSpace(filter.Email))
	reservations = make([]Reservation, 0, len(all))
	for _, reservation := range all {
		if needle != "" && !strings.Contains(strings.ToLower(reservation.RequesterEmail), needle) {
			continue
		}
		reservations = append(reservations, reservation)
	}
	return
}

// Availability lays out every room's hours on date, marking the reservation
// holding each occupied hour.
func (s *QueryService) Availability(ctx context.Context, date string) ([]RoomAvailability, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	date = strings.TrimSpace(date)
	if !validDate(date) {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return nil, vErr
	}
	if s.rooms == nil {
		return nil, fmt.Errorf("room catalog not configured")
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, mapRoomRepoError(err)
	}
	reservations, err := s.list(ctx, ReservationRepositoryFilter{Date: date})
	if err != nil {
		return nil, err
	}

	holders := make(map[string]map[int]Reservation, len(rooms))
	for _, reservation := range reservations {
		if reservation.Status == StatusRejected && !s.options.RejectedBlocks {
			continue
		}
		byHour := holders[reservation.RoomID]
		if byHour == nil {
			byHour = make(map[int]Reservation)
			holders[reservation.RoomID] = byHour
		}
		for _, hour := range reservation.Range().Hours() {
			if _, taken := byHour[hour]; !taken {
				byHour[hour] = reservation
			}
		}
	}

	grid := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		states := make([]SlotState, 0, slot.ClosingHour-slot.FirstHour)
		for hour := range slot.All() {
			state := SlotState{Slot: hour, Label: slot.Label(hour), Free: true}
			if holder, ok := holders[room.ID][hour]; ok {
				state.Free = false
				state.ReservationID = holder.ID
				state.Status = holder.Status
			}
			states = append(states, state)
		}
		grid = append(grid, RoomAvailability{Room: room, Date: date, Slots: states})
	}
	return grid, nil
}

func (s *QueryService) list(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error) {
	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, mapReservationRepoError(err)
	}
	SortReservations(reservations)
	return reservations, nil
}

// SortReservations orders reservations by date, then slot, then creation time.
func SortReservations(reservations []Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
