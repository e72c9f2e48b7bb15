package persistence

import "context"

// RoomRepository exposes read access to rooms plus the upsert used to seed the catalog.
type RoomRepository interface {
	UpsertRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// BookingFilter narrows booking queries by field equality. Empty fields are ignored.
type BookingFilter struct {
	RoomID string
	Date   string
	Email  string
}

// BookingRepository stores reservations.
type BookingRepository interface {
	// InsertIfFree stores the booking only when no other booking for the same
	// room and date overlaps its hours. The check and the insert are atomic
	// with respect to other InsertIfFree calls. Rejected bookings count as
	// occupying their hours only when rejectedBlocks is set.
	InsertIfFree(ctx context.Context, booking Booking, rejectedBlocks bool) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status BookingStatus) error
	DeleteBooking(ctx context.Context, id string) error
}

// AdminRepository stores administrator records.
type AdminRepository interface {
	CreateAdmin(ctx context.Context, admin Admin) error
	ListAdminsByUID(ctx context.Context, uid string) ([]Admin, error)
}

// UserRepository stores identity provider accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	RoomRepository
	BookingRepository
	AdminRepository
	UserRepository
	Close() error
}
