// Package adapters converts between persistence records and application
// models so the application services can run on any persistence.Store.
package adapters

import (
	"context"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence"
)

// Repositories bundles the application ports served by one store.
type Repositories struct {
	Rooms        *RoomRepositoryAdapter
	Reservations *ReservationRepositoryAdapter
	Admins       *AdminDirectoryAdapter
	Users        *UserRepositoryAdapter
}

// New wraps store in every application port.
func New(store persistence.Store) Repositories {
	return Repositories{
		Rooms:        NewRoomRepositoryAdapter(store),
		Reservations: NewReservationRepositoryAdapter(store),
		Admins:       NewAdminDirectoryAdapter(store),
		Users:        NewUserRepositoryAdapter(store),
	}
}

// RoomRepositoryAdapter serves application.RoomRepository.
type RoomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func NewRoomRepositoryAdapter(repo persistence.RoomRepository) *RoomRepositoryAdapter {
	return &RoomRepositoryAdapter{repo: repo}
}

func (a *RoomRepositoryAdapter) UpsertRoom(ctx context.Context, room application.Room) error {
	return a.repo.UpsertRoom(ctx, toPersistenceRoom(room))
}

func (a *RoomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *RoomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

// ReservationRepositoryAdapter serves application.ReservationRepository.
type ReservationRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func NewReservationRepositoryAdapter(repo persistence.BookingRepository) *ReservationRepositoryAdapter {
	return &ReservationRepositoryAdapter{repo: repo}
}

func (a *ReservationRepositoryAdapter) InsertReservationIfFree(ctx context.Context, reservation application.Reservation, rejectedBlocks bool) error {
	return a.repo.InsertIfFree(ctx, toPersistenceBooking(reservation), rejectedBlocks)
}

func (a *ReservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *ReservationRepositoryAdapter) ListReservations(ctx context.Context, filter application.ReservationRepositoryFilter) ([]application.Reservation, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		RoomID: filter.RoomID,
		Date:   filter.Date,
		Email:  filter.Email,
	})
	if err != nil {
		return nil, err
	}
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations, nil
}

func (a *ReservationRepositoryAdapter) UpdateReservationStatus(ctx context.Context, id string, status application.ReservationStatus) error {
	return a.repo.UpdateBookingStatus(ctx, id, persistence.BookingStatus(status))
}

func (a *ReservationRepositoryAdapter) DeleteReservation(ctx context.Context, id string) error {
	return a.repo.DeleteBooking(ctx, id)
}

// AdminDirectoryAdapter serves application.AdminDirectory.
type AdminDirectoryAdapter struct {
	repo persistence.AdminRepository
}

func NewAdminDirectoryAdapter(repo persistence.AdminRepository) *AdminDirectoryAdapter {
	return &AdminDirectoryAdapter{repo: repo}
}

func (a *AdminDirectoryAdapter) ListAdminsByUID(ctx context.Context, uid string) ([]application.AdminRecord, error) {
	models, err := a.repo.ListAdminsByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	records := make([]application.AdminRecord, 0, len(models))
	for _, model := range models {
		records = append(records, application.AdminRecord{
			ID:        model.ID,
			UID:       model.UID,
			Email:     model.Email,
			Name:      model.Name,
			CreatedAt: model.CreatedAt,
		})
	}
	return records, nil
}

func (a *AdminDirectoryAdapter) CreateAdmin(ctx context.Context, record application.AdminRecord) error {
	return a.repo.CreateAdmin(ctx, persistence.Admin{
		ID:        record.ID,
		UID:       record.UID,
		Email:     record.Email,
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
	})
}

// UserRepositoryAdapter serves application.UserRepository.
type UserRepositoryAdapter struct {
	repo persistence.UserRepository
}

func NewUserRepositoryAdapter(repo persistence.UserRepository) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{repo: repo}
}

func (a *UserRepositoryAdapter) CreateUser(ctx context.Context, user application.UserAccount) error {
	return a.repo.CreateUser(ctx, persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
}

func (a *UserRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.UserAccount, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserAccount{}, err
	}
	return application.UserAccount{
		ID:           stored.ID,
		Email:        stored.Email,
		PasswordHash: stored.PasswordHash,
		CreatedAt:    stored.CreatedAt,
	}, nil
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:        model.ID,
		Name:      model.Name,
		Type:      model.Type,
		Capacity:  model.Capacity,
		Features:  append([]string(nil), model.Features...),
		CreatedAt: model.CreatedAt,
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Type:      room.Type,
		Capacity:  room.Capacity,
		Features:  append([]string(nil), room.Features...),
		CreatedAt: room.CreatedAt,
	}
}

func toApplicationReservation(model persistence.Booking) application.Reservation {
	return application.Reservation{
		ID:             model.ID,
		RoomID:         model.RoomID,
		RoomName:       model.RoomName,
		Date:           model.Date,
		Slot:           model.Slot,
		Duration:       model.Duration,
		RequesterName:  model.Name,
		RequesterEmail: model.Email,
		RequesterUID:   model.RequesterUID,
		Purpose:        model.Purpose,
		Status:         application.ReservationStatus(persistence.ParseBookingStatus(string(model.Status))),
		CreatedAt:      model.CreatedAt,
	}
}

func toPersistenceBooking(reservation application.Reservation) persistence.Booking {
	return persistence.Booking{
		ID:           reservation.ID,
		RoomID:       reservation.RoomID,
		RoomName:     reservation.RoomName,
		Date:         reservation.Date,
		Slot:         reservation.Slot,
		Duration:     reservation.Duration,
		Name:         reservation.RequesterName,
		Email:        reservation.RequesterEmail,
		RequesterUID: reservation.RequesterUID,
		Purpose:      reservation.Purpose,
		Status:       persistence.BookingStatus(reservation.Status),
		CreatedAt:    reservation.CreatedAt,
	}
}
