package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-reservations/internal/adapters"
	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/persistence/sqlite"
	"github.com/example/room-reservations/internal/persistence/sqlite/migration"
)

// SQLiteHarness is a migrated SQLite store in a temporary directory plus the
// application ports over it.
type SQLiteHarness struct {
	Store *sqlite.Store
	Repos adapters.Repositories

	cleanup func()
}

// Close releases the store. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a fresh store under tb.TempDir.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	store, err := sqlite.Open(context.Background(), migration.TempFileTestSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		Repos: adapters.New(store),
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedRooms writes the rooms directly to the store.
func (h *SQLiteHarness) SeedRooms(tb testing.TB, rooms ...RoomFixture) {
	tb.Helper()
	for _, room := range rooms {
		if err := h.Store.UpsertRoom(context.Background(), room.Persistence()); err != nil {
			tb.Fatalf("failed to seed room %s: %v", room.ID, err)
		}
	}
}

// SeedReservations writes reservations straight to the store. Overlapping
// fixtures fail the test.
func (h *SQLiteHarness) SeedReservations(tb testing.TB, reservations ...ReservationFixture) {
	tb.Helper()
	for _, reservation := range reservations {
		if err := h.Store.InsertIfFree(context.Background(), reservation.Persistence(), true); err != nil {
			tb.Fatalf("failed to seed reservation %s: %v", reservation.ID, err)
		}
	}
}

// SeedAdmin records uid as an administrator.
func (h *SQLiteHarness) SeedAdmin(tb testing.TB, uid, email string) {
	tb.Helper()
	record := application.AdminRecord{ID: "admin-" + uid, UID: uid, Email: email, Name: email, CreatedAt: referenceTime}
	if err := h.Repos.Admins.CreateAdmin(context.Background(), record); err != nil {
		tb.Fatalf("failed to seed admin %s: %v", uid, err)
	}
}
