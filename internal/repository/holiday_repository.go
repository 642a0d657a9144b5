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

// HolidayDateConstraint guards one holiday per date.
const HolidayDateConstraint = "holidays_date_key"

// HolidayRepository manages the holidays table.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns every holiday ordered by date.
func (r *HolidayRepository) List(ctx context.Context) ([]models.Holiday, error) {
	holidays := make([]models.Holiday, 0)
	if err := r.db.SelectContext(ctx, &holidays, `SELECT id, date, name, created_by, created_at, updated_at FROM holidays ORDER BY date ASC`); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// FindByID retrieves a holiday.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, `SELECT id, date, name, created_by, created_at, updated_at FROM holidays WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find holiday: %w", err)
	}
	return &holiday, nil
}

// Create inserts a holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	holiday.CreatedAt = now
	holiday.UpdatedAt = now

	const query = `INSERT INTO holidays (id, date, name, created_by, created_at, updated_at) VALUES (:id, :date, :name, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return expectAffected(res)
}
