package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite
type BookingRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = `id, room_id, room_name, date, slot, duration, name, email, requester_uid, purpose, status, created_at`

// overlapQuery finds a booking on the same room and date whose hours
// intersect [slot, slot+duration). Stored durations below one count as one.
const overlapQuery = `
	SELECT id FROM bookings
	WHERE room_id = ? AND date = ?
		AND slot < ?
		AND slot + MAX(duration, 1) > ?
		AND (? OR LOWER(TRIM(status)) <> 'rejected')
	LIMIT 1
`

// InsertIfFree stores the booking unless another booking already holds one of
// its hours. The overlap check and the insert share one transaction, which
// takes the write lock up front because migration's connectionString sets
// _txlock=immediate on the DSN.
func (r *BookingRepository) InsertIfFree(ctx context.Context, booking persistence.Booking, rejectedBlocks bool) error {
	if strings.TrimSpace(booking.ID) == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx, overlapQuery,
			booking.RoomID,
			booking.Date,
			booking.End(),
			booking.Slot,
			rejectedBlocks,
		).Scan(&existingID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: overlaps booking %s", persistence.ErrSlotTaken, existingID)
		case !errors.Is(err, sql.ErrNoRows):
			return r.mapper.MapError(err)
		}

		status := booking.Status
		if status == "" {
			status = persistence.StatusPending
		}

		query := `
			INSERT INTO bookings (` + bookingColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			booking.ID,
			booking.RoomID,
			booking.RoomName,
			booking.Date,
			booking.Slot,
			booking.Duration,
			booking.Name,
			booking.Email,
			booking.RequesterUID,
			booking.Purpose,
			string(status),
			formatTime(booking.CreatedAt),
		)
		return r.mapper.MapError(err)
	})
}

// GetBooking retrieves a booking by ID
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListBookings returns bookings matching the filter ordered by date, slot
// and creation time.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query, args := buildBookingListQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

// UpdateBookingStatus overwrites the status of one booking.
func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id string, status persistence.BookingStatus) error {
	result, err := r.pool.DB().ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// DeleteBooking removes a booking by ID
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

func buildBookingListQuery(filter persistence.BookingFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	}
	if filter.Email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, filter.Email)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, slot ASC, created_at ASC, id ASC"
	return query, args
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking   persistence.Booking
		status    string
		createdAt string
	)
	err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.RoomName,
		&booking.Date,
		&booking.Slot,
		&booking.Duration,
		&booking.Name,
		&booking.Email,
		&booking.RequesterUID,
		&booking.Purpose,
		&status,
		&createdAt,
	)
	if err != nil {
		return persistence.Booking{}, err
	}
	booking.Status = persistence.ParseBookingStatus(status)
	if booking.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
