package application

import (
	"time"

	"github.com/example/room-reservations/internal/scheduler"
	"github.com/example/room-reservations/internal/slot"
)

// Identity is the signed-in caller as reported by the identity provider.
// A nil *Identity is the anonymous caller.
type Identity struct {
	UID   string
	Email string
}

// Anonymous reports whether the identity carries no uid.
func (i *Identity) Anonymous() bool {
	return i == nil || i.UID == ""
}

// ReservationStatus is the approval state of a reservation.
type ReservationStatus string

const (
	StatusPending  ReservationStatus = "pending"
	StatusApproved ReservationStatus = "approved"
	StatusRejected ReservationStatus = "rejected"
)

// ParseReservationStatus accepts exactly the three known statuses.
func ParseReservationStatus(raw string) (ReservationStatus, bool) {
	switch status := ReservationStatus(raw); status {
	case StatusPending, StatusApproved, StatusRejected:
		return status, true
	}
	return "", false
}

// Room is a bookable room. Rooms are read only to the reservation engine.
type Room struct {
	ID        string
	Name      string
	Type      string
	Capacity  int
	Features  []string
	CreatedAt time.Time
}

// Reservation is a booking of consecutive hours in one room on one date.
type Reservation struct {
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
	Status         ReservationStatus
	CreatedAt      time.Time
}

// Range returns the occupied hours.
func (r Reservation) Range() slot.Range {
	return slot.OccupiedRange(r.Slot, slot.NormalizeDuration(r.Duration))
}

func (r Reservation) detectorView() scheduler.Reservation {
	return scheduler.Reservation{
		ID:       r.ID,
		RoomID:   r.RoomID,
		Date:     r.Date,
		Slot:     r.Slot,
		Duration: r.Duration,
		Rejected: r.Status == StatusRejected,
	}
}

// ReservationInput carries the requester supplied booking fields.
type ReservationInput struct {
	RoomID         string
	Date           string
	Slot           int
	Duration       int
	RequesterName  string
	RequesterEmail string
	Purpose        string
}

// CreateReservationParams bundles a creation request with the acting identity.
type CreateReservationParams struct {
	Identity *Identity
	Input    ReservationInput
}

// SetStatusParams bundles a status change with the acting identity.
type SetStatusParams struct {
	Identity      *Identity
	ReservationID string
	Status        ReservationStatus
}

// AdminRecord links an identity uid to administrator privileges.
type AdminRecord struct {
	ID        string
	UID       string
	Email     string
	Name      string
	CreatedAt time.Time
}

// AdminSignUpParams carries an administrator registration request.
type AdminSignUpParams struct {
	Email           string
	Password        string
	Name            string
	AdmissionSecret string
}

// ListFilter narrows the admin listing. Date is an exact match and Email a
// case-insensitive substring match.
type ListFilter struct {
	Date  string
	Email string
}

// SlotState describes one hour of a room's day.
type SlotState struct {
	Slot          int
	Label         string
	Free          bool
	ReservationID string
	Status        ReservationStatus
}

// RoomAvailability is the hour grid of one room on one date.
type RoomAvailability struct {
	Room  Room
	Date  string
	Slots []SlotState
}

// UserAccount is an identity provider account with its password hash.
type UserAccount struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}
