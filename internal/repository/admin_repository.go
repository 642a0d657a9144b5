package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

const adminColumns = `id, name, employee_id, phone_number, email, password_hash, avatar, role, department, subjects, assigned_classes, city, last_login, is_active, created_at, updated_at`

// AdminRepository provides database access for staff accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail returns an admin by email address.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1 LIMIT 1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// ExistsByEmailOrPhone reports whether another admin already uses the email or phone number.
func (r *AdminRepository) ExistsByEmailOrPhone(ctx context.Context, email, phone, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM admins WHERE (email = $1 OR phone_number = $2) AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, phone, excludeID); err != nil {
		return false, fmt.Errorf("check admin uniqueness: %w", err)
	}
	return exists, nil
}

// ListByRole returns admins holding the given role ordered by name.
func (r *AdminRepository) ListByRole(ctx context.Context, role models.AdminRole) ([]models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE role = $1 ORDER BY name ASC`
	admins := make([]models.Admin, 0)
	if err := r.db.SelectContext(ctx, &admins, query, role); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now

	const query = `INSERT INTO admins (id, name, employee_id, phone_number, email, password_hash, avatar, role, department, subjects, assigned_classes, city, is_active, created_at, updated_at)
VALUES (:id, :name, :employee_id, :phone_number, :email, :password_hash, :avatar, :role, :department, :subjects, :assigned_classes, :city, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// UpdateProfile writes the editable profile fields.
func (r *AdminRepository) UpdateProfile(ctx context.Context, admin *models.Admin) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admins SET name = :name, phone_number = :phone_number, email = :email, avatar = :avatar, department = :department, city = :city, subjects = :subjects, assigned_classes = :assigned_classes, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, admin)
	if err != nil {
		return fmt.Errorf("update admin profile: %w", err)
	}
	return expectAffected(res)
}

// UpdateLastLogin updates the last_login timestamp.
func (r *AdminRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE admins SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectAffected(res)
}

// SetActive flips the account status.
func (r *AdminRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE admins SET is_active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an admin permanently.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return expectAffected(res)
}

// expectAffected maps a zero row update to sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
