package sqlite

import (
	"context"
	"strings"

	"github.com/example/room-reservations/internal/persistence"
)

// AdminRepository implements persistence.AdminRepository using SQLite
type AdminRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewAdminRepository creates a new SQLite admin repository
func NewAdminRepository(pool *ConnectionPool) *AdminRepository {
	return &AdminRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateAdmin inserts an administrator record. Records are never updated.
func (r *AdminRepository) CreateAdmin(ctx context.Context, admin persistence.Admin) error {
	if strings.TrimSpace(admin.ID) == "" || strings.TrimSpace(admin.UID) == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO admins (id, uid, email, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		admin.ID, admin.UID, admin.Email, admin.Name, formatTime(admin.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// ListAdminsByUID returns every admin record for the uid.
func (r *AdminRepository) ListAdminsByUID(ctx context.Context, uid string) ([]persistence.Admin, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT id, uid, email, name, created_at FROM admins WHERE uid = ? ORDER BY created_at ASC`, uid)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var admins []persistence.Admin
	for rows.Next() {
		var (
			admin     persistence.Admin
			createdAt string
		)
		if err := rows.Scan(&admin.ID, &admin.UID, &admin.Email, &admin.Name, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if admin.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return admins, nil
}
