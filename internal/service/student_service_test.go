package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]*models.Student
	lastFilter models.StudentFilter
	nextID     int
}

func newMockStudentRepo(students ...*models.Student) *mockStudentRepo {
	repo := &mockStudentRepo{students: map[string]*models.Student{}}
	for _, st := range students {
		repo.students[st.ID] = st
	}
	return repo
}

func (m *mockStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	m.lastFilter = filter
	out := make([]models.Student, 0, len(m.students))
	for _, st := range m.students {
		out = append(out, *st)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	if st, ok := m.students[id]; ok {
		copy := *st
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) unique(st *models.Student) error {
	for id, other := range m.students {
		if id == st.ID {
			continue
		}
		if other.RollID == st.RollID {
			return fmt.Errorf("create student: %w", &pq.Error{Code: "23505", Constraint: repository.StudentRollConstraint})
		}
		if other.Email == st.Email {
			return fmt.Errorf("create student: %w", &pq.Error{Code: "23505", Constraint: repository.StudentEmailConstraint})
		}
		if st.PersonalInfo.AadharCard != "" && other.PersonalInfo.AadharCard == st.PersonalInfo.AadharCard {
			return fmt.Errorf("create student: %w", &pq.Error{Code: "23505", Constraint: repository.StudentAadharConstraint})
		}
	}
	return nil
}

func (m *mockStudentRepo) Create(_ context.Context, st *models.Student) error {
	if err := m.unique(st); err != nil {
		return err
	}
	m.nextID++
	st.ID = fmt.Sprintf("st-%d", m.nextID)
	copy := *st
	m.students[st.ID] = &copy
	return nil
}

func (m *mockStudentRepo) Update(_ context.Context, st *models.Student) error {
	if _, ok := m.students[st.ID]; !ok {
		return sql.ErrNoRows
	}
	if err := m.unique(st); err != nil {
		return err
	}
	copy := *st
	m.students[st.ID] = &copy
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) (*models.Student, error) {
	st, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.students, id)
	return st, nil
}

func validStudent(roll int, email string) models.StudentRequest {
	return models.StudentRequest{
		Name:            "Meera Nair",
		Email:           email,
		RollID:          roll,
		Course:          "Web Development",
		GuardianDetails: models.GuardianDetails{PrimaryPhone: "9876543210"},
	}
}

func TestRegisterStudent(t *testing.T) {
	repo := newMockStudentRepo()
	cacheRepo := newFakeCacheRepo()
	svc := NewStudentService(repo, NewCacheService(cacheRepo, nil, 0, nil, true), nil, nil)

	student, err := svc.Register(context.Background(), "admin-1", validStudent(7, " Meera@School.TEST "))
	require.NoError(t, err)
	assert.Equal(t, "meera@school.test", student.Email)
	assert.Equal(t, models.StudentActive, student.Status)
	assert.Equal(t, "0%", student.Attendance)
	require.NotNil(t, student.RegistrarID)
	assert.Equal(t, "admin-1", *student.RegistrarID)
	assert.Equal(t, []string{statsCachePattern}, cacheRepo.invalidated)
}

func TestRegisterStudentDuplicates(t *testing.T) {
	existing := &models.Student{ID: "st-0", RollID: 7, Email: "meera@school.test", PersonalInfo: models.PersonalInfo{AadharCard: "1234"}}
	svc := NewStudentService(newMockStudentRepo(existing), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a", validStudent(7, "other@school.test"))
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, "Student with Roll Number 7 already exists.", appErrors.FromError(err).Message)

	_, err = svc.Register(ctx, "a", validStudent(8, "meera@school.test"))
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, "Student with Email meera@school.test already exists.", appErrors.FromError(err).Message)

	req := validStudent(9, "new@school.test")
	req.PersonalInfo.AadharCard = "1234"
	_, err = svc.Register(ctx, "a", req)
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, "Duplicate entry found.", appErrors.FromError(err).Message)
}

func TestRegisterStudentValidation(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil, nil)

	req := validStudent(1, "not-an-email")
	_, err := svc.Register(context.Background(), "a", req)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Equal(t, "email must be a valid email address", appErrors.FromError(err).Message)

	req = validStudent(1, "ok@school.test")
	req.Name = "  "
	_, err = svc.Register(context.Background(), "a", req)
	assert.Equal(t, "name is required", appErrors.FromError(err).Message)

	req = validStudent(1, "ok@school.test")
	req.GuardianDetails.PrimaryPhone = ""
	_, err = svc.Register(context.Background(), "a", req)
	assert.Equal(t, "guardianDetails.primaryPhone is required", appErrors.FromError(err).Message)
}

func TestEditStudent(t *testing.T) {
	repo := newMockStudentRepo(&models.Student{ID: "st-1", RollID: 1, Email: "a@school.test", Attendance: "80%", Status: models.StudentActive})
	svc := NewStudentService(repo, nil, nil, nil)

	req := validStudent(1, "a@school.test")
	req.LegacyID = "st-1"
	req.Grade = "A"
	student, err := svc.Edit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "A", student.Grade)
	assert.Equal(t, "80%", student.Attendance)
	assert.Equal(t, models.StudentActive, student.Status)

	req.LegacyID = ""
	_, err = svc.Edit(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	req.ID = "ghost"
	_, err = svc.Edit(context.Background(), req)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
	assert.Equal(t, "Student not found", appErrors.FromError(err).Message)
}

func TestDeleteStudent(t *testing.T) {
	repo := newMockStudentRepo(&models.Student{ID: "st-1", Name: "Meera"})
	svc := NewStudentService(repo, nil, nil, nil)

	deleted, err := svc.Delete(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, "Meera", deleted.Name)
	assert.Empty(t, repo.students)

	_, err = svc.Delete(context.Background(), "st-1")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestListStudents(t *testing.T) {
	repo := newMockStudentRepo(&models.Student{ID: "st-1"})
	svc := NewStudentService(repo, nil, nil, nil)

	students, err := svc.List(context.Background(), models.StudentFilter{Search: " meera ", Status: models.StudentActive})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, "meera", repo.lastFilter.Search)

	_, err = svc.List(context.Background(), models.StudentFilter{Status: "Graduated"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}
