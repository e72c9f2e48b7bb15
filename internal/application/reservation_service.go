package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/scheduler"
	"github.com/example/room-reservations/internal/slot"
)

// dateLayout is the ISO calendar date used for reservation dates.
const dateLayout = "2006-01-02"

// ReservationRepository captures the persistence operations needed by the service.
type ReservationRepository interface {
	// InsertReservationIfFree writes the reservation unless an overlapping one
	// exists, returning persistence.ErrSlotTaken in that case.
	InsertReservationIfFree(ctx context.Context, reservation Reservation, rejectedBlocks bool) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus) error
	DeleteReservation(ctx context.Context, id string) error
}

// ReservationRepositoryFilter narrows queries issued to the reservation repository.
type ReservationRepositoryFilter struct {
	RoomID string
	Date   string
	Email  string
}

// AdminAuthorizer decides whether an identity may perform admin-only operations.
type AdminAuthorizer interface {
	RequireAdmin(ctx context.Context, identity *Identity) error
}

// insertAttempts bounds how often Create retries a conditional insert whose
// blocking reservation disappeared before it could be reported.
const insertAttempts = 2

// ReservationOptions tunes booking rules.
type ReservationOptions struct {
	// RejectedBlocks keeps rejected reservations' hours unavailable.
	RejectedBlocks bool
}

// ReservationService owns the reservation lifecycle: create, status changes,
// cancellation and deletion.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomCatalog
	admins       AdminAuthorizer
	idGenerator  func() string
	now          func() time.Time
	options      ReservationOptions
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(reservations ReservationRepository, rooms RoomCatalog, admins AdminAuthorizer, idGenerator func() string, now func() time.Time, options ReservationOptions) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, admins, idGenerator, now, options, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, rooms RoomCatalog, admins AdminAuthorizer, idGenerator func() string, now func() time.Time, options ReservationOptions, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		admins:       admins,
		idGenerator:  idGenerator,
		now:          now,
		options:      options,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

func (s *ReservationService) ready() error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}
	return nil
}

// FindConflicts returns the reservations on roomID and date that overlap
// [start, start+duration). A reservation with id excludeID is ignored.
func (s *ReservationService) FindConflicts(ctx context.Context, roomID, date string, start, duration int, excludeID string) ([]scheduler.Conflict, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	existing, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{RoomID: roomID, Date: date})
	if err != nil {
		return nil, mapReservationRepoError(err)
	}

	views := make([]scheduler.Reservation, 0, len(existing))
	for _, reservation := range existing {
		views = append(views, reservation.detectorView())
	}

	candidate := scheduler.Reservation{ID: excludeID, RoomID: roomID, Date: date, Slot: start, Duration: duration}
	return scheduler.DetectConflicts(views, candidate, scheduler.Options{RejectedBlocks: s.options.RejectedBlocks}), nil
}

// Create validates the request, re-checks conflicts and writes a pending reservation.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	input := normalizeReservationInput(params.Input)
	if input.RequesterEmail == "" && params.Identity != nil {
		input.RequesterEmail = strings.TrimSpace(params.Identity.Email)
	}

	logger := s.loggerWith(ctx, "Create",
		"room_id", input.RoomID,
		"date", input.Date,
		"slot", input.Slot,
		"duration", input.Duration,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if vErr := validateReservationInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	room, err := s.lookupRoom(ctx, input.RoomID)
	if err != nil {
		return
	}

	conflicts, err := s.FindConflicts(ctx, input.RoomID, input.Date, input.Slot, input.Duration, "")
	if err != nil {
		return
	}
	if len(conflicts) > 0 {
		err = &ConflictError{Conflicts: conflicts}
		return
	}

	candidate := Reservation{
		ID:             s.idGenerator(),
		RoomID:         room.ID,
		RoomName:       room.Name,
		Date:           input.Date,
		Slot:           input.Slot,
		Duration:       input.Duration,
		RequesterName:  input.RequesterName,
		RequesterEmail: input.RequesterEmail,
		Purpose:        input.Purpose,
		Status:         StatusPending,
		CreatedAt:      s.now().UTC(),
	}
	if params.Identity != nil {
		candidate.RequesterUID = params.Identity.UID
	}

	for attempt := 1; ; attempt++ {
		err = s.reservations.InsertReservationIfFree(ctx, candidate, s.options.RejectedBlocks)
		if err == nil {
			break
		}
		if !errors.Is(err, persistence.ErrSlotTaken) {
			err = mapReservationRepoError(err)
			return
		}

		// Lost the race to a concurrent request; report who holds the hours now.
		conflicts, findErr := s.FindConflicts(ctx, input.RoomID, input.Date, input.Slot, input.Duration, "")
		if findErr != nil {
			err = findErr
			return
		}
		if len(conflicts) > 0 {
			err = &ConflictError{Conflicts: conflicts}
			return
		}
		if attempt == insertAttempts {
			err = fmt.Errorf("%w: %w", ErrSlotTaken, err)
			return
		}
		// The holder was gone before it could be read; the hours may be free again.
	}

	reservation = candidate
	return
}

// SetStatus changes the status of a reservation. Only administrators may call
// it. Any of the three statuses may follow any other and no conflict check runs.
func (s *ReservationService) SetStatus(ctx context.Context, params SetStatusParams) (reservation Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "SetStatus",
		"reservation_id", params.ReservationID,
		"status", string(params.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set reservation status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation status updated")
	}()

	if err = s.requireAdmin(ctx, params.Identity); err != nil {
		return
	}

	if _, ok := ParseReservationStatus(string(params.Status)); !ok {
		vErr := &ValidationError{}
		vErr.add("status", "status must be pending, approved or rejected")
		err = vErr
		return
	}

	if err = s.reservations.UpdateReservationStatus(ctx, params.ReservationID, params.Status); err != nil {
		err = mapReservationRepoError(err)
		return
	}

	reservation, err = s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapReservationRepoError(err)
	}
	return
}

// Cancel deletes a reservation on behalf of the requester who made it.
func (s *ReservationService) Cancel(ctx context.Context, identity *Identity, id string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Cancel", "reservation_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation canceled")
	}()

	if identity.Anonymous() {
		return unauthorized(identity, "cancel reservation", "sign-in required")
	}

	existing, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return mapReservationRepoError(err)
	}
	if !ownsReservation(identity, existing) {
		return unauthorized(identity, "cancel reservation", "not the requester")
	}

	return mapReservationRepoError(s.reservations.DeleteReservation(ctx, id))
}

// Delete removes any reservation. Only administrators may call it.
func (s *ReservationService) Delete(ctx context.Context, identity *Identity, id string) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Delete", "reservation_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation deleted")
	}()

	if err = s.requireAdmin(ctx, identity); err != nil {
		return
	}
	return mapReservationRepoError(s.reservations.DeleteReservation(ctx, id))
}

// Get returns one reservation or ErrNotFound.
func (s *ReservationService) Get(ctx context.Context, id string) (Reservation, error) {
	if err := s.ready(); err != nil {
		return Reservation{}, err
	}
	reservation, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return Reservation{}, mapReservationRepoError(err)
	}
	return reservation, nil
}

func (s *ReservationService) requireAdmin(ctx context.Context, identity *Identity) error {
	if s.admins == nil {
		return unauthorized(identity, "admin operation", "no authorization gate configured")
	}
	return s.admins.RequireAdmin(ctx, identity)
}

func (s *ReservationService) lookupRoom(ctx context.Context, roomID string) (Room, error) {
	if s.rooms == nil {
		return Room{ID: roomID}, nil
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			vErr := &ValidationError{}
			vErr.add("room_id", "room does not exist")
			return Room{}, vErr
		}
		return Room{}, err
	}
	return room, nil
}

func ownsReservation(identity *Identity, reservation Reservation) bool {
	if reservation.RequesterUID != "" {
		return reservation.RequesterUID == identity.UID
	}
	return identity.Email != "" && reservation.RequesterEmail == identity.Email
}

func normalizeReservationInput(input ReservationInput) ReservationInput {
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.Date = strings.TrimSpace(input.Date)
	input.RequesterName = normalizeText(input.RequesterName)
	input.RequesterEmail = strings.TrimSpace(input.RequesterEmail)
	input.Purpose = normalizeText(input.Purpose)
	return input
}

// normalizeText trims free text and stores line breaks as "\n", the form
// CSV readers hand back.
func normalizeText(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, "\r\n", "\n"))
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}

	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}

	if input.Date == "" {
		vErr.add("date", "date is required")
	} else if !validDate(input.Date) {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	}

	if input.RequesterName == "" {
		vErr.add("name", "name is required")
	}

	if err := slot.Validate(input.Slot, input.Duration); err != nil {
		var rangeErr *slot.InvalidRangeError
		field := "slot"
		message := err.Error()
		if errors.As(err, &rangeErr) {
			message = rangeErr.Reason
			if input.Slot >= slot.FirstHour && input.Slot < slot.ClosingHour {
				field = "duration"
			}
		}
		vErr.add(field, message)
	}

	return vErr
}

func validDate(value string) bool {
	parsed, err := time.Parse(dateLayout, value)
	return err == nil && parsed.Format(dateLayout) == value
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("room_id", "room does not exist")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("reservation", "reservation violates store constraints")
		return vErr
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}
