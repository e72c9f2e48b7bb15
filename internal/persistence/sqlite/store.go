// Package sqlite implements the persistence repositories on SQLite using the
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/sqlite/migration"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	*RoomRepository
	*BookingRepository
	*AdminRepository
	*UserRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by config and applies pending migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	return &Store{
		RoomRepository:    NewRoomRepository(pool),
		BookingRepository: NewBookingRepository(pool),
		AdminRepository:   NewAdminRepository(pool),
		UserRepository:    NewUserRepository(pool),
		pool:              pool,
	}, nil
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}
