package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

// RoomCatalog exposes room lookup operations.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// RoomRepository adds the seeding write to the catalog.
type RoomRepository interface {
	RoomCatalog
	UpsertRoom(ctx context.Context, room Room) error
}

// RoomInput describes a catalog entry supplied at bootstrap.
type RoomInput struct {
	ID       string
	Name     string
	Type     string
	Capacity int
	Features []string
}

// RoomService serves the room catalog.
type RoomService struct {
	rooms  RoomRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, now func() time.Time, logger *slog.Logger) *RoomService {
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// ListRooms returns every room ordered by name.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil {
		return nil, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return nil, fmt.Errorf("room repository not configured")
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListRooms").ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
		return nil, mapRoomRepoError(err)
	}
	return rooms, nil
}

// GetRoom returns one room or ErrNotFound.
func (s *RoomService) GetRoom(ctx context.Context, id string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}

	room, err := s.rooms.GetRoom(ctx, strings.TrimSpace(id))
	if err != nil {
		return Room{}, mapRoomRepoError(err)
	}
	return room, nil
}

// SeedRooms upserts the supplied rooms into the catalog.
func (s *RoomService) SeedRooms(ctx context.Context, inputs []RoomInput) (err error) {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "SeedRooms", "count", len(inputs))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to seed rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rooms seeded")
	}()

	vErr := &ValidationError{}
	for i, input := range inputs {
		vErr.merge(validateRoomInput(fmt.Sprintf("rooms[%d].", i), input))
	}
	if vErr.HasErrors() {
		return vErr
	}

	now := s.now()
	for _, input := range inputs {
		room := Room{
			ID:        strings.TrimSpace(input.ID),
			Name:      strings.TrimSpace(input.Name),
			Type:      strings.TrimSpace(input.Type),
			Capacity:  input.Capacity,
			Features:  input.Features,
			CreatedAt: now,
		}
		if err = s.rooms.UpsertRoom(ctx, room); err != nil {
			return mapRoomRepoError(err)
		}
	}
	return nil
}

func validateRoomInput(prefix string, input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.ID) == "" {
		vErr.add(prefix+"id", "id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add(prefix+"name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add(prefix+"capacity", "capacity must be positive")
	}
	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
