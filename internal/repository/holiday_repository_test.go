package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
)

func TestHolidayList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM holidays ORDER BY date ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "name", "created_by", "created_at", "updated_at"}).
			AddRow("h1", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), "Independence Day", "admin-1", now, now))

	holidays, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2024-08-15", holidays[0].Date.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayCreateDuplicateDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec("INSERT INTO holidays").
		WillReturnError(&pq.Error{Code: "23505", Constraint: HolidayDateConstraint})

	date, _ := models.ParseDate("2024-08-15")
	err := repo.Create(context.Background(), &models.Holiday{Date: date, Name: "Independence Day"})
	require.Error(t, err)
	constraint, dup := UniqueViolation(err)
	assert.True(t, dup)
	assert.Equal(t, HolidayDateConstraint, constraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolidayDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM holidays WHERE id = $1")).
		WithArgs("h9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "h9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
