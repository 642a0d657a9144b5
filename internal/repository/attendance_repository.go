package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// ErrAttendanceExists is returned when a day already has an attendance record.
var ErrAttendanceExists = errors.New("attendance already recorded for date")

const attendanceColumns = `id, date, attendant, records, total_students, present_count, absent_count, leave_count, attendance_percentage, created_at, updated_at`

type attendanceRow struct {
	ID        string                   `db:"id"`
	Date      models.Date              `db:"date"`
	Attendant sql.NullString           `db:"attendant"`
	Records   models.AttendanceRecords `db:"records"`
	models.AttendanceSummary
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) toModel() models.Attendance {
	return models.Attendance{
		ID:        r.ID,
		Date:      r.Date,
		Attendant: r.Attendant.String,
		Records:   r.Records,
		Summary:   r.AttendanceSummary,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AttendanceRepository persists one attendance row per calendar day.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts the day inside a transaction. The primary key on the date string arbitrates
// concurrent submissions; any duplicate surfaces as ErrAttendanceExists.
func (r *AttendanceRepository) Create(ctx context.Context, att *models.Attendance) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowxContext(ctx, `SELECT 1 FROM attendance WHERE id = $1`, att.ID).Scan(&exists)
	switch {
	case err == nil:
		return ErrAttendanceExists
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check attendance: %w", err)
	}

	now := time.Now().UTC()
	if att.CreatedAt.IsZero() {
		att.CreatedAt = now
	}
	att.UpdatedAt = now

	const query = `INSERT INTO attendance (id, date, attendant, records, total_students, present_count, absent_count, leave_count, attendance_percentage, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING RETURNING id`
	var insertedID string
	err = tx.QueryRowxContext(ctx, query,
		att.ID, att.Date, att.Attendant, att.Records,
		att.Summary.TotalStudents, att.Summary.PresentCount, att.Summary.AbsentCount, att.Summary.LeaveCount, att.Summary.AttendancePercentage,
		att.CreatedAt, att.UpdatedAt,
	).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAttendanceExists
		}
		if _, dup := UniqueViolation(err); dup {
			return ErrAttendanceExists
		}
		return fmt.Errorf("insert attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	commit = true
	return nil
}

// FindByID returns the attendance stored under a YYYY-MM-DD key.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	var row attendanceRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	att := row.toModel()
	return &att, nil
}

// ListByIDs returns the stored days among ids, ordered by date.
func (r *AttendanceRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Attendance, error) {
	if len(ids) == 0 {
		return []models.Attendance{}, nil
	}
	var rows []attendanceRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+attendanceColumns+` FROM attendance WHERE id = ANY($1) ORDER BY date ASC`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	result := make([]models.Attendance, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toModel())
	}
	return result, nil
}

// MonthlyAverages averages the attendance percentage per month within [from, to).
func (r *AttendanceRepository) MonthlyAverages(ctx context.Context, from, to models.Date) ([]models.PeriodAverage, error) {
	const query = `SELECT EXTRACT(MONTH FROM date)::int AS period, AVG(attendance_percentage)::float8 AS average
FROM attendance WHERE date >= $1 AND date < $2 GROUP BY 1 ORDER BY 1`
	averages := make([]models.PeriodAverage, 0)
	if err := r.db.SelectContext(ctx, &averages, query, from, to); err != nil {
		return nil, fmt.Errorf("monthly attendance averages: %w", err)
	}
	return averages, nil
}

// YearlyAverages averages the attendance percentage per year across all history.
func (r *AttendanceRepository) YearlyAverages(ctx context.Context) ([]models.PeriodAverage, error) {
	const query = `SELECT EXTRACT(YEAR FROM date)::int AS period, AVG(attendance_percentage)::float8 AS average
FROM attendance GROUP BY 1 ORDER BY 1`
	averages := make([]models.PeriodAverage, 0)
	if err := r.db.SelectContext(ctx, &averages, query); err != nil {
		return nil, fmt.Errorf("yearly attendance averages: %w", err)
	}
	return averages, nil
}

// CountDays returns the number of days with recorded attendance within [from, to).
func (r *AttendanceRepository) CountDays(ctx context.Context, from, to models.Date) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attendance WHERE date >= $1 AND date < $2`, from, to); err != nil {
		return 0, fmt.Errorf("count attendance days: %w", err)
	}
	return total, nil
}

// TopPresent ranks students by distinct present days within [from, to). Ties are ordered by name.
func (r *AttendanceRepository) TopPresent(ctx context.Context, from, to models.Date, limit int) ([]models.PresentDays, error) {
	const query = `SELECT rec->>'studentId' AS student_id, MAX(rec->>'name') AS name, MAX(rec->>'rollNo') AS roll_no, COUNT(DISTINCT a.id) AS days
FROM attendance a, jsonb_array_elements(a.records) AS rec
WHERE a.date >= $1 AND a.date < $2 AND rec->>'status' = 'present'
GROUP BY rec->>'studentId'
ORDER BY days DESC, name ASC
LIMIT $3`
	rows := make([]models.PresentDays, 0)
	if err := r.db.SelectContext(ctx, &rows, query, from, to, limit); err != nil {
		return nil, fmt.Errorf("top present students: %w", err)
	}
	return rows, nil
}
