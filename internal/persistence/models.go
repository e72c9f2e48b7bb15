package persistence

import (
	"strings"
	"time"
)

// BookingStatus is the approval state stored on a booking row.
type BookingStatus string

const (
	StatusPending  BookingStatus = "pending"
	StatusApproved BookingStatus = "approved"
	StatusRejected BookingStatus = "rejected"
)

// ParseBookingStatus normalises a stored status. Rows written before statuses
// existed carry an empty value and read back as pending, as does anything
// unrecognised.
func ParseBookingStatus(raw string) BookingStatus {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Room represents a bookable room catalog entry.
type Room struct {
	ID        string
	Name      string
	Type      string
	Capacity  int
	Features  []string
	CreatedAt time.Time
}

// Booking represents a reservation of consecutive hours in one room on one date.
type Booking struct {
	ID           string
	RoomID       string
	RoomName     string
	Date         string
	Slot         int
	Duration     int
	Name         string
	Email        string
	RequesterUID string
	Purpose      string
	Status       BookingStatus
	CreatedAt    time.Time
}

// End returns the exclusive end hour of the booking.
func (b Booking) End() int {
	duration := b.Duration
	if duration <= 0 {
		duration = 1
	}
	return b.Slot + duration
}

// Admin links an identity provider uid to administrator privileges.
type Admin struct {
	ID        string
	UID       string
	Email     string
	Name      string
	CreatedAt time.Time
}

// User is an account known to the built-in identity provider.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
