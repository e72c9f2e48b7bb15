package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueryFixtures(store *memoryStore) {
	created := testStart
	store.put(
		Reservation{ID: "r1", RoomID: roomA.ID, Date: "2025-11-22", Slot: 14, Duration: 1, RequesterName: "Alice", RequesterEmail: "alice@example.com", Status: StatusPending, CreatedAt: created},
		Reservation{ID: "r2", RoomID: roomA.ID, Date: "2025-11-21", Slot: 9, Duration: 2, RequesterName: "Alice", RequesterEmail: "alice@example.com", Status: StatusApproved, CreatedAt: created},
		Reservation{ID: "r3", RoomID: roomB.ID, Date: "2025-11-21", Slot: 8, Duration: 1, RequesterName: "Bob", RequesterEmail: "Bob@Example.com", Status: StatusRejected, CreatedAt: created},
		Reservation{ID: "r4", RoomID: roomA.ID, Date: "2025-11-21", Slot: 13, Duration: 1, RequesterName: "Bob", RequesterEmail: "Bob@Example.com", Status: StatusPending, CreatedAt: created.Add(time.Minute)},
	)
}

func reservationIDs(reservations []Reservation) []string {
	ids := make([]string, 0, len(reservations))
	for _, r := range reservations {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestQueryService_ListForRoom(t *testing.T) {
	t.Parallel()

	env := newTestEnv(ReservationOptions{})
	seedQueryFixtures(env.store)

	got, err := env.queries.ListForRoom(context.Background(), roomA.ID, "2025-11-21")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r4"}, reservationIDs(got))
}

func TestQueryService_ListForRequester(t *testing.T) {
	t.Parallel()

	env := newTestEnv(ReservationOptions{})
	seedQueryFixtures(env.store)
	ctx := context.Background()

	got, err := env.queries.ListForRequester(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r1"}, reservationIDs(got))

	got, err = env.queries.ListForRequester(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, got, "email match is exact")

	got, err = env.queries.ListForRequester(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = env.queries.ListMine(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err = env.queries.ListMine(ctx, aliceIdentity)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestQueryService_ListAll(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{name: "no filter sorts by date then slot", want: []string{"r3", "r2", "r4", "r1"}},
		{name: "date is exact", filter: ListFilter{Date: "2025-11-22"}, want: []string{"r1"}},
		{name: "email is a case-insensitive substring", filter: ListFilter{Email: "BOB@"}, want: []string{"r3", "r4"}},
		{name: "filters combine", filter: ListFilter{Date: "2025-11-21", Email: "example"}, want: []string{"r3", "r2", "r4"}},
		{name: "no match", filter: ListFilter{Email: "zed"}, want: []string{}},
	}

	env := newTestEnv(ReservationOptions{})
	seedQueryFixtures(env.store)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.queries.ListAll(context.Background(), adminIdentity, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reservationIDs(got))
		})
	}

	_, err := env.queries.ListAll(context.Background(), aliceIdentity, ListFilter{})
	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestQueryService_Availability(t *testing.T) {
	t.Parallel()

	env := newTestEnv(ReservationOptions{})
	seedQueryFixtures(env.store)

	grid, err := env.queries.Availability(context.Background(), "2025-11-21")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, roomA.ID, grid[0].Room.ID)
	require.Len(t, grid[0].Slots, 12)

	a := grid[0].Slots
	assert.Equal(t, 8, a[0].Slot)
	assert.Equal(t, "08:00 - 09:00", a[0].Label)
	assert.True(t, a[0].Free)
	assert.False(t, a[1].Free)
	assert.Equal(t, "r2", a[1].ReservationID)
	assert.Equal(t, StatusApproved, a[1].Status)
	assert.False(t, a[2].Free)
	assert.True(t, a[3].Free)
	assert.Equal(t, "r4", a[5].ReservationID)

	assert.True(t, grid[1].Slots[0].Free, "rejected hours are free")

	_, err = env.queries.Availability(context.Background(), "tomorrow")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestQueryService_AvailabilityRejectedBlocks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(ReservationOptions{RejectedBlocks: true})
	seedQueryFixtures(env.store)

	grid, err := env.queries.Availability(context.Background(), "2025-11-21")
	require.NoError(t, err)
	assert.False(t, grid[1].Slots[0].Free)
	assert.Equal(t, StatusRejected, grid[1].Slots[0].Status)
}
