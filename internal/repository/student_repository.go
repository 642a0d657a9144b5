package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

const studentColumns = `id, name, email, roll_id, image, personal_info, guardian_details, course, course_start_date, course_end_date, status, marks, grade, attendance, certificate_id, documents, registrar_id, created_at, updated_at`

// Student table unique constraints.
const (
	StudentRollConstraint   = "students_roll_id_key"
	StudentEmailConstraint  = "students_email_key"
	StudentAadharConstraint = "students_aadhar_key"
)

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the filter ordered by roll number.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR CAST(roll_id AS TEXT) = $%d)", idx, idx, idx+1))
		args = append(args, "%"+filter.Search+"%", strings.TrimSpace(filter.Search))
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}

	query := `SELECT ` + studentColumns + ` FROM students`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY roll_id ASC"

	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID retrieves a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Count returns the number of registered students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const query = `INSERT INTO students (` + studentColumns + `)
VALUES (:id, :name, :email, :roll_id, :image, :personal_info, :guardian_details, :course, :course_start_date, :course_end_date, :status, :marks, :grade, :attendance, :certificate_id, :documents, :registrar_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies the editable columns of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, roll_id = :roll_id, image = :image, personal_info = :personal_info, guardian_details = :guardian_details, course = :course, course_start_date = :course_start_date, course_end_date = :course_end_date, status = :status, marks = :marks, grade = :grade, documents = :documents, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a student and returns the removed row.
func (r *StudentRepository) Delete(ctx context.Context, id string) (*models.Student, error) {
	query := `DELETE FROM students WHERE id = $1 RETURNING ` + studentColumns
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("delete student: %w", err)
	}
	return &student, nil
}

// MarkCompleted stores the issued certificate id and closes the enrollment.
func (r *StudentRepository) MarkCompleted(ctx context.Context, id, certificateID string) error {
	const query = `UPDATE students SET status = $2, certificate_id = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StudentCompleted, certificateID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark student completed: %w", err)
	}
	return expectAffected(res)
}

// ImagesByIDs maps student ids to their image URLs.
func (r *StudentRepository) ImagesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	images := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return images, nil
	}
	var rows []struct {
		ID    string `db:"id"`
		Image string `db:"image"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, image FROM students WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("student images: %w", err)
	}
	for _, row := range rows {
		images[row.ID] = row.Image
	}
	return images, nil
}

// GenderCounts groups students by gender. Missing genders are reported as Unspecified.
func (r *StudentRepository) GenderCounts(ctx context.Context) ([]models.GenderCount, error) {
	const query = `SELECT COALESCE(NULLIF(personal_info->>'gender', ''), 'Unspecified') AS gender, COUNT(*) AS count FROM students GROUP BY 1 ORDER BY 1`
	counts := make([]models.GenderCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("gender counts: %w", err)
	}
	return counts, nil
}

// RefreshAttendance recomputes the attendance display string of every student listed on the given day.
func (r *StudentRepository) RefreshAttendance(ctx context.Context, dateKey string) (int64, error) {
	const query = `WITH tallies AS (
	SELECT rec->>'studentId' AS student_id,
		COUNT(*) FILTER (WHERE rec->>'status' = 'present') AS present,
		COUNT(*) AS total
	FROM attendance, jsonb_array_elements(attendance.records) AS rec
	GROUP BY rec->>'studentId'
)
UPDATE students s
SET attendance = ROUND(t.present * 100.0 / t.total)::int::text || '%', updated_at = NOW()
FROM tallies t
WHERE s.id = t.student_id
	AND s.id IN (SELECT day.rec->>'studentId' FROM attendance a, jsonb_array_elements(a.records) AS day(rec) WHERE a.id = $1)`
	res, err := r.db.ExecContext(ctx, query, dateKey)
	if err != nil {
		return 0, fmt.Errorf("refresh student attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
