package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/testfixtures"
)

type failingLister struct{}

func (failingLister) ListReservations(context.Context, application.ReservationRepositoryFilter) ([]application.Reservation, error) {
	return nil, errors.New("store offline")
}

func TestJobRunWritesDatedExport(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	room := testfixtures.NewRoomFixture(testfixtures.WithRoomName("Cedar"))
	harness.SeedRooms(t, room)
	harness.SeedReservations(t,
		testfixtures.NewReservationFixture(room, testfixtures.WithHours(14, 2), testfixtures.WithRequester("Late, Lou", "lou@example.com", "")),
		testfixtures.NewReservationFixture(room, testfixtures.WithHours(9, 1), testfixtures.WithStatus(application.StatusApproved)),
	)

	dir := filepath.Join(t.TempDir(), "exports")
	job := NewJob(harness.Repos.Reservations, dir, testfixtures.ReferenceTime, nil)

	path, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bookings_export_2025-11-21.csv"), path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, application.ExportHeader, records[0])
	assert.Equal(t, "9", records[1][4])
	assert.Equal(t, "approved", records[1][9])
	assert.Equal(t, "Late, Lou", records[2][6])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestJobRunFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	job := NewJob(failingLister{}, dir, time.Now, nil)

	_, err := job.Run(context.Background())
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var nilJob *Job
	_, err = nilJob.Run(context.Background())
	assert.Error(t, err)
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	job := NewJob(failingLister{}, t.TempDir(), nil, nil)

	_, err := NewScheduler(job, "every night", 0, nil)
	assert.Error(t, err)

	scheduler, err := NewScheduler(job, "0 2 * * *", time.Minute, nil)
	require.NoError(t, err)
	assert.True(t, scheduler.Next().IsZero())

	scheduler.Start()
	next := scheduler.Next()
	assert.Equal(t, 2, next.Hour())
	assert.Equal(t, 0, next.Minute())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	scheduler.Stop(ctx)
}
