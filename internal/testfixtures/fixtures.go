package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence"
)

var (
	roomCounter        uint64
	reservationCounter uint64
)

var referenceTime = time.Date(2025, time.November, 21, 8, 0, 0, 0, time.UTC)

// ReferenceDate is the reservation date used by fixtures, matching ReferenceTime.
const ReferenceDate = "2025-11-21"

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic room.
type RoomFixture struct {
	ID        string
	Name      string
	Type      string
	Capacity  int
	Features  []string
	CreatedAt time.Time
}

// RoomOption configures a RoomFixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a room with a unique id, capacity 30 and no features.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Type:      "meeting",
		Capacity:  30,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

func WithRoomFeatures(features ...string) RoomOption {
	return func(f *RoomFixture) { f.Features = features }
}

// Application converts the fixture into an application.Room.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Type:      f.Type,
		Capacity:  f.Capacity,
		Features:  append([]string(nil), f.Features...),
		CreatedAt: f.CreatedAt,
	}
}

// Input converts the fixture into a seeding input.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{ID: f.ID, Name: f.Name, Type: f.Type, Capacity: f.Capacity, Features: f.Features}
}

// Persistence converts the fixture into a persistence.Room.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Type:      f.Type,
		Capacity:  f.Capacity,
		Features:  append([]string(nil), f.Features...),
		CreatedAt: f.CreatedAt,
	}
}

// -------------------------- Reservation fixtures --------------------------

// ReservationFixture is a deterministic one-hour pending reservation at 09:00
// on ReferenceDate.
type ReservationFixture struct {
	ID             string
	RoomID         string
	RoomName       string
	Date           string
	Slot           int
	Duration       int
	RequesterName  string
	RequesterEmail string
	RequesterUID   string
	Purpose        string
	Status         application.ReservationStatus
	CreatedAt      time.Time
}

// ReservationOption configures a ReservationFixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a reservation in room, with optional overrides.
func NewReservationFixture(room RoomFixture, opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	fixture := ReservationFixture{
		ID:             fmt.Sprintf("reservation-%03d", idx),
		RoomID:         room.ID,
		RoomName:       room.Name,
		Date:           ReferenceDate,
		Slot:           9,
		Duration:       1,
		RequesterName:  fmt.Sprintf("Requester %03d", idx),
		RequesterEmail: fmt.Sprintf("requester-%03d@example.com", idx),
		Purpose:        "planning",
		Status:         application.StatusPending,
		CreatedAt:      referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) { f.ID = id }
}

func WithDate(date string) ReservationOption {
	return func(f *ReservationFixture) { f.Date = date }
}

// WithHours sets the start slot and duration.
func WithHours(start, duration int) ReservationOption {
	return func(f *ReservationFixture) {
		f.Slot = start
		f.Duration = duration
	}
}

// WithRequester sets the requester identity fields.
func WithRequester(name, email, uid string) ReservationOption {
	return func(f *ReservationFixture) {
		f.RequesterName = name
		f.RequesterEmail = email
		f.RequesterUID = uid
	}
}

func WithStatus(status application.ReservationStatus) ReservationOption {
	return func(f *ReservationFixture) { f.Status = status }
}

// Application converts the fixture into an application.Reservation.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:             f.ID,
		RoomID:         f.RoomID,
		RoomName:       f.RoomName,
		Date:           f.Date,
		Slot:           f.Slot,
		Duration:       f.Duration,
		RequesterName:  f.RequesterName,
		RequesterEmail: f.RequesterEmail,
		RequesterUID:   f.RequesterUID,
		Purpose:        f.Purpose,
		Status:         f.Status,
		CreatedAt:      f.CreatedAt,
	}
}

// Input converts the fixture into a creation request body.
func (f ReservationFixture) Input() application.ReservationInput {
	return application.ReservationInput{
		RoomID:         f.RoomID,
		Date:           f.Date,
		Slot:           f.Slot,
		Duration:       f.Duration,
		RequesterName:  f.RequesterName,
		RequesterEmail: f.RequesterEmail,
		Purpose:        f.Purpose,
	}
}

// Persistence converts the fixture into a persistence.Booking.
func (f ReservationFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:           f.ID,
		RoomID:       f.RoomID,
		RoomName:     f.RoomName,
		Date:         f.Date,
		Slot:         f.Slot,
		Duration:     f.Duration,
		Name:         f.RequesterName,
		Email:        f.RequesterEmail,
		RequesterUID: f.RequesterUID,
		Purpose:      f.Purpose,
		Status:       persistence.BookingStatus(f.Status),
		CreatedAt:    f.CreatedAt,
	}
}
