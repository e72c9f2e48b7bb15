package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
	}
}

const roomColumns = `id, name, type, capacity, features, created_at`

// UpsertRoom inserts the room or replaces its catalog fields. CreatedAt is
// kept from the first insert.
func (r *RoomRepository) UpsertRoom(ctx context.Context, room persistence.Room) error {
	if strings.TrimSpace(room.ID) == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	features, err := json.Marshal(nonNilStrings(room.Features))
	if err != nil {
		return fmt.Errorf("encode room features: %w", err)
	}

	query := `
		INSERT INTO rooms (id, name, type, capacity, features, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			capacity = excluded.capacity,
			features = excluded.features
	`

	_, err = r.pool.DB().ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Type,
		room.Capacity,
		string(features),
		formatTime(room.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetRoom retrieves a room by ID from the database
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room      persistence.Room
		features  string
		createdAt string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.Type, &room.Capacity, &features, &createdAt); err != nil {
		return persistence.Room{}, err
	}
	if features != "" {
		if err := json.Unmarshal([]byte(features), &room.Features); err != nil {
			return persistence.Room{}, fmt.Errorf("decode features for room %s: %w", room.ID, err)
		}
	}
	var err error
	if room.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
