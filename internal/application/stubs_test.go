package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

type memoryStore struct {
	mu           sync.Mutex
	rooms        map[string]Room
	reservations map[string]Reservation
	admins       []AdminRecord
	users        map[string]UserAccount

	listErr   error
	adminErr  error
	adminHits int
}

func newMemoryStore(rooms ...Room) *memoryStore {
	store := &memoryStore{
		rooms:        make(map[string]Room),
		reservations: make(map[string]Reservation),
		users:        make(map[string]UserAccount),
	}
	for _, room := range rooms {
		store.rooms[room.ID] = room
	}
	return store
}

func (m *memoryStore) GetRoom(ctx context.Context, id string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memoryStore) ListRooms(ctx context.Context) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	for i := 1; i < len(rooms); i++ {
		for j := i; j > 0 && rooms[j].Name < rooms[j-1].Name; j-- {
			rooms[j], rooms[j-1] = rooms[j-1], rooms[j]
		}
	}
	return rooms, nil
}

func (m *memoryStore) UpsertRoom(ctx context.Context, room Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

func (m *memoryStore) InsertReservationIfFree(ctx context.Context, reservation Reservation, rejectedBlocks bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[reservation.RoomID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := m.reservations[reservation.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range m.reservations {
		if existing.RoomID != reservation.RoomID || existing.Date != reservation.Date {
			continue
		}
		if existing.Status == StatusRejected && !rejectedBlocks {
			continue
		}
		if existing.Range().Overlaps(reservation.Range()) {
			return fmt.Errorf("insert %s: %w", reservation.ID, persistence.ErrSlotTaken)
		}
	}
	m.reservations[reservation.ID] = reservation
	return nil
}

func (m *memoryStore) GetReservation(ctx context.Context, id string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.reservations[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (m *memoryStore) ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Reservation
	for _, r := range m.reservations {
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		if filter.Email != "" && r.RequesterEmail != filter.Email {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryStore) UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.reservations[id]
	if !ok {
		return persistence.ErrNotFound
	}
	reservation.Status = status
	m.reservations[id] = reservation
	return nil
}

func (m *memoryStore) DeleteReservation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memoryStore) put(reservations ...Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range reservations {
		m.reservations[r.ID] = r
	}
}

func (m *memoryStore) ListAdminsByUID(ctx context.Context, uid string) ([]AdminRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adminHits++
	if m.adminErr != nil {
		return nil, m.adminErr
	}
	var out []AdminRecord
	for _, admin := range m.admins {
		if admin.UID == uid {
			out = append(out, admin)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateAdmin(ctx context.Context, admin AdminRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins = append(m.admins, admin)
	return nil
}

func (m *memoryStore) CreateUser(ctx context.Context, user UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, ok := m.users[key]; ok {
		return persistence.ErrDuplicate
	}
	m.users[key] = user
	return nil
}

func (m *memoryStore) GetUserByEmail(ctx context.Context, email string) (UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return UserAccount{}, persistence.ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adminHits
}

type staticClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *staticClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *staticClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

var (
	roomA = Room{ID: "room-a", Name: "Aster", Type: "meeting", Capacity: 6}
	roomB = Room{ID: "room-b", Name: "Birch", Type: "studio", Capacity: 12}

	adminIdentity  = &Identity{UID: "uid-admin", Email: "admin@example.com"}
	aliceIdentity  = &Identity{UID: "uid-alice", Email: "alice@example.com"}
	bobIdentity    = &Identity{UID: "uid-bob", Email: "bob@example.com"}
	testStart      = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	testPasswordHP = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
)

type testEnv struct {
	store        *memoryStore
	clock        *staticClock
	gate         *AdminGate
	reservations *ReservationService
	queries      *QueryService
}

func newTestEnv(options ReservationOptions) *testEnv {
	store := newMemoryStore(roomA, roomB)
	store.admins = []AdminRecord{{ID: "adm-1", UID: adminIdentity.UID, Email: adminIdentity.Email, Name: "Admin"}}
	clock := &staticClock{now: testStart}
	gate := NewAdminGate(store, nil, AdminGateConfig{Now: clock.Now})
	return &testEnv{
		store:        store,
		clock:        clock,
		gate:         gate,
		reservations: NewReservationService(store, store, gate, sequentialIDs("res"), clock.Now, options),
		queries:      NewQueryService(store, store, gate, options),
	}
}

func (e *testEnv) book(identity *Identity, input ReservationInput) (Reservation, error) {
	return e.reservations.Create(context.Background(), CreateReservationParams{Identity: identity, Input: input})
}

func bookingInput(roomID, date string, start, duration int, name string) ReservationInput {
	return ReservationInput{
		RoomID:        roomID,
		Date:          date,
		Slot:          start,
		Duration:      duration,
		RequesterName: name,
	}
}
