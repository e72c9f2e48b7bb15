// Package gormstore implements the persistence repositories with gorm, for
// deployments that keep reservations in PostgreSQL.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/example/room-reservations/internal/persistence"
)

// Dialect names accepted by Open.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Config describes how to reach the database.
type Config struct {
	Dialect         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// Store implements persistence.Store on a gorm connection.
type Store struct {
	db *gorm.DB
}

var _ persistence.Store = (*Store)(nil)

// Open connects with the configured dialect and migrates the schema.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Dialect) {
	case DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DialectSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("gormstore: unsupported dialect %q", cfg.Dialect)
	}

	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if dialector.Name() == DialectSQLite {
		// SQLite has one writer; a single connection serialises booking inserts.
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&roomModel{}, &bookingModel{}, &adminModel{}, &userModel{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	return New(db), nil
}

// New wraps an already configured gorm connection. The schema is not migrated.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertRoom inserts the room or updates its catalog fields.
func (s *Store) UpsertRoom(ctx context.Context, room persistence.Room) error {
	if strings.TrimSpace(room.ID) == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	model := roomModel{
		ID:        room.ID,
		Name:      room.Name,
		Type:      room.Type,
		Capacity:  room.Capacity,
		Features:  nonNilStrings(room.Features),
		CreatedAt: room.CreatedAt.UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "type", "capacity", "features"}),
	}).Create(&model).Error
	return mapError(err)
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	var model roomModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		return persistence.Room{}, mapError(err)
	}
	return model.toPersistence(), nil
}

// ListRooms returns all rooms ordered by name then ID.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	var models []roomModel
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, mapError(err)
	}
	rooms := make([]persistence.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, model.toPersistence())
	}
	return rooms, nil
}

// InsertIfFree checks for overlapping bookings and inserts in one transaction.
// On PostgreSQL the room row is locked FOR UPDATE first so concurrent inserts
// for the same room queue behind each other.
func (s *Store) InsertIfFree(ctx context.Context, booking persistence.Booking, rejectedBlocks bool) error {
	if strings.TrimSpace(booking.ID) == "" {
		return persistence.ErrConstraintViolation
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roomQuery := tx.Model(&roomModel{}).Select("id").Where("id = ?", booking.RoomID)
		if tx.Dialector.Name() == DialectPostgres {
			roomQuery = roomQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var room roomModel
		if err := roomQuery.Take(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: room %s", persistence.ErrForeignKeyViolation, booking.RoomID)
			}
			return mapError(err)
		}

		overlap := tx.Model(&bookingModel{}).
			Where("room_id = ? AND date = ?", booking.RoomID, booking.Date).
			Where("slot < ?", booking.End()).
			Where("slot + (CASE WHEN duration < 1 THEN 1 ELSE duration END) > ?", booking.Slot)
		if !rejectedBlocks {
			overlap = overlap.Where("LOWER(TRIM(status)) <> ?", string(persistence.StatusRejected))
		}
		var count int64
		if err := overlap.Count(&count).Error; err != nil {
			return mapError(err)
		}
		if count > 0 {
			return persistence.ErrSlotTaken
		}

		model := bookingFromPersistence(booking)
		return mapError(tx.Create(&model).Error)
	})
}

// GetBooking retrieves a booking by ID.
func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	var model bookingModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return model.toPersistence(), nil
}

// ListBookings returns bookings matching the filter ordered by date and slot.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query := s.db.WithContext(ctx).Model(&bookingModel{})
	if filter.RoomID != "" {
		query = query.Where("room_id = ?", filter.RoomID)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}

	var models []bookingModel
	if err := query.Order("date ASC").Order("slot ASC").Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, mapError(err)
	}
	bookings := make([]persistence.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, model.toPersistence())
	}
	return bookings, nil
}

// UpdateBookingStatus overwrites the status of one booking.
func (s *Store) UpdateBookingStatus(ctx context.Context, id string, status persistence.BookingStatus) error {
	result := s.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Update("status", string(status))
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteBooking removes a booking by ID.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&bookingModel{})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// CreateAdmin inserts an administrator record.
func (s *Store) CreateAdmin(ctx context.Context, admin persistence.Admin) error {
	if strings.TrimSpace(admin.ID) == "" || strings.TrimSpace(admin.UID) == "" {
		return persistence.ErrConstraintViolation
	}
	model := adminModel{ID: admin.ID, UID: admin.UID, Email: admin.Email, Name: admin.Name, CreatedAt: admin.CreatedAt.UTC()}
	return mapError(s.db.WithContext(ctx).Create(&model).Error)
}

// ListAdminsByUID returns every admin record for the uid.
func (s *Store) ListAdminsByUID(ctx context.Context, uid string) ([]persistence.Admin, error) {
	var models []adminModel
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, mapError(err)
	}
	admins := make([]persistence.Admin, 0, len(models))
	for _, m := range models {
		admins = append(admins, persistence.Admin{ID: m.ID, UID: m.UID, Email: m.Email, Name: m.Name, CreatedAt: m.CreatedAt.UTC()})
	}
	return admins, nil
}

// CreateUser inserts an identity provider account with a lower-cased email.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	model := userModel{ID: user.ID, Email: normalizeEmail(user.Email), PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt.UTC()}
	return mapError(s.db.WithContext(ctx).Create(&model).Error)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error; err != nil {
		return persistence.User{}, mapError(err)
	}
	return model.toPersistence(), nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	var model userModel
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&model).Error; err != nil {
		return persistence.User{}, mapError(err)
	}
	return model.toPersistence(), nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrSlotTaken),
		errors.Is(err, persistence.ErrNotFound),
		errors.Is(err, persistence.ErrForeignKeyViolation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return persistence.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}

	// Older sqlite drivers do not translate errors.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

func (m roomModel) toPersistence() persistence.Room {
	return persistence.Room{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		Capacity:  m.Capacity,
		Features:  m.Features,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func bookingFromPersistence(b persistence.Booking) bookingModel {
	status := b.Status
	if status == "" {
		status = persistence.StatusPending
	}
	return bookingModel{
		ID:           b.ID,
		RoomID:       b.RoomID,
		RoomName:     b.RoomName,
		Date:         b.Date,
		Slot:         b.Slot,
		Duration:     b.Duration,
		Name:         b.Name,
		Email:        b.Email,
		RequesterUID: b.RequesterUID,
		Purpose:      b.Purpose,
		Status:       string(status),
		CreatedAt:    b.CreatedAt.UTC(),
	}
}

func (m bookingModel) toPersistence() persistence.Booking {
	return persistence.Booking{
		ID:           m.ID,
		RoomID:       m.RoomID,
		RoomName:     m.RoomName,
		Date:         m.Date,
		Slot:         m.Slot,
		Duration:     m.Duration,
		Name:         m.Name,
		Email:        m.Email,
		RequesterUID: m.RequesterUID,
		Purpose:      m.Purpose,
		Status:       persistence.ParseBookingStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (m userModel) toPersistence() persistence.User {
	return persistence.User{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt.UTC()}
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
