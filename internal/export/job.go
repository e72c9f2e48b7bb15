// Package export writes the nightly bookings CSV to disk on a cron schedule.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/logging"
)

// ReservationLister reads reservations without an authorization check. The
// job runs as the system, not on behalf of a caller.
type ReservationLister interface {
	ListReservations(ctx context.Context, filter application.ReservationRepositoryFilter) ([]application.Reservation, error)
}

// Job renders every reservation into Dir as bookings_export_<date>.csv.
type Job struct {
	reservations ReservationLister
	dir          string
	now          func() time.Time
	logger       *slog.Logger
}

// NewJob builds an export job writing into dir.
func NewJob(reservations ReservationLister, dir string, now func() time.Time, logger *slog.Logger) *Job {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{reservations: reservations, dir: dir, now: now, logger: logger}
}

// Run writes one export file and returns its path. The file is written under
// a temporary name and renamed so readers never see a partial export.
func (j *Job) Run(ctx context.Context) (path string, err error) {
	if j == nil || j.reservations == nil {
		return "", fmt.Errorf("export job not configured")
	}

	logger := j.logger
	if fromCtx := logging.FromContext(ctx); fromCtx != nil {
		logger = fromCtx
	}
	logger = logger.With("component", "export")
	started := j.now()
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "export failed", "error", err, "error_kind", application.ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "export written", "path", path)
	}()

	reservations, err := j.reservations.ListReservations(ctx, application.ReservationRepositoryFilter{})
	if err != nil {
		return "", fmt.Errorf("list reservations: %w", err)
	}
	application.SortReservations(reservations)

	if err = os.MkdirAll(j.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(j.dir, ".export-*.csv")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = application.WriteCSV(tmp, application.ToTable(reservations)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	path = filepath.Join(j.dir, application.ExportFileName(started))
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish export: %w", err)
	}
	return path, nil
}
