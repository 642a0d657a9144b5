package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

var attendanceColumnNames = []string{"id", "date", "attendant", "records", "total_students", "present_count", "absent_count", "leave_count", "attendance_percentage", "created_at", "updated_at"}

func sampleAttendance() *models.Attendance {
	date, _ := models.ParseDate("2024-05-01")
	records := models.AttendanceRecords{
		{StudentID: "s1", Name: "Asha", RollNo: "1", Status: models.StatusPresent},
		{StudentID: "s2", Name: "Bilal", RollNo: "2", Status: models.StatusAbsent},
	}
	return &models.Attendance{
		ID:        date.String(),
		Date:      date,
		Attendant: "admin-1",
		Records:   records,
		Summary:   models.Summarize(records),
	}
}

func TestAttendanceCreateCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendance WHERE id = $1")).
		WithArgs("2024-05-01").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs("2024-05-01", "2024-05-01", "admin-1", sqlmock.AnyArg(), 2, 1, 1, 0, 50.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("2024-05-01"))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), sampleAttendance())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateRejectsExistingDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendance WHERE id = $1")).
		WithArgs("2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleAttendance())
	assert.ErrorIs(t, err, ErrAttendanceExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateLosesRace(t *testing.T) {
	cases := map[string]func(*sqlmock.ExpectedQuery){
		"on conflict returns no row": func(q *sqlmock.ExpectedQuery) {
			q.WillReturnRows(sqlmock.NewRows([]string{"id"}))
		},
		"unique violation": func(q *sqlmock.ExpectedQuery) {
			q.WillReturnError(&pq.Error{Code: "23505", Constraint: "attendance_pkey"})
		},
	}

	for name, arrange := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()
			repo := NewAttendanceRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendance WHERE id = $1")).WillReturnError(sql.ErrNoRows)
			arrange(mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")))
			mock.ExpectRollback()

			err := repo.Create(context.Background(), sampleAttendance())
			assert.ErrorIs(t, err, ErrAttendanceExists)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAttendanceCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendance WHERE id = $1")).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleAttendance())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAttendanceExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(attendanceColumnNames).
		AddRow("2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "admin-1",
			[]byte(`[{"studentId":"s1","name":"Asha","rollNo":"1","status":"present"}]`),
			1, 1, 0, 0, 100.0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE id = $1")).
		WithArgs("2024-05-01").
		WillReturnRows(rows)

	att, err := repo.FindByID(context.Background(), "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", att.Date.String())
	require.Len(t, att.Records, 1)
	assert.Equal(t, models.StatusPresent, att.Records[0].Status)
	assert.Equal(t, 100.0, att.Summary.AttendancePercentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	result, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceMonthlyAverages(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from, _ := models.ParseDate("2024-01-01")
	to, _ := models.ParseDate("2025-01-01")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXTRACT(MONTH FROM date)::int AS period")).
		WithArgs("2024-01-01", "2025-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"period", "average"}).AddRow(1, 88.5).AddRow(3, 91.25))

	averages, err := repo.MonthlyAverages(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, averages, 2)
	assert.Equal(t, 3, averages[1].Period)
	assert.Equal(t, 91.25, averages[1].Average)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceTopPresent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from, _ := models.ParseDate("2024-05-01")
	to, _ := models.ParseDate("2024-06-01")
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT a.id) AS days") + "(?s).*" + regexp.QuoteMeta("ORDER BY days DESC, name ASC")).
		WithArgs("2024-05-01", "2024-06-01", 5).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "name", "roll_no", "days"}).
			AddRow("s1", "Asha", "1", 20).
			AddRow("s2", "Bilal", "2", 18))

	rows, err := repo.TopPresent(context.Background(), from, to, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 20, rows[0].Days)
	assert.NoError(t, mock.ExpectationsWereMet())
}
