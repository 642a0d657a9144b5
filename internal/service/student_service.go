package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) (*models.Student, error)
}

var errStudentNotFound = appErrors.Clone(appErrors.ErrNotFound, "Student not found")

// StudentService manages student enrollment records.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService. cache may be nil.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Status != "" {
		switch filter.Status {
		case models.StudentActive, models.StudentCompleted, models.StudentDropped, models.StudentSuspended:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of: Active, Completed, Dropped, Suspended")
		}
	}
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	return students, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

// Register enrolls a new student recorded by registrarID.
func (s *StudentService) Register(ctx context.Context, registrarID string, req models.StudentRequest) (*models.Student, error) {
	req = normalizeStudentRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	student := &models.Student{Attendance: "0%", Status: models.StudentActive}
	applyStudentRequest(student, req)
	if registrarID != "" {
		student.RegistrarID = &registrarID
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, studentWriteError(err, req, "failed to register student")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student registered", zap.String("student_id", student.ID), zap.Int("roll_id", student.RollID))
	return student, nil
}

// Edit replaces the editable fields of the student named by the payload id.
func (s *StudentService) Edit(ctx context.Context, req models.StudentRequest) (*models.Student, error) {
	id := req.TargetID()
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	req = normalizeStudentRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)

	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, studentWriteError(err, req, "failed to update student")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	return student, nil
}

// Delete removes a student and returns the removed record.
func (s *StudentService) Delete(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, internalError(err, "failed to delete student")
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return student, nil
}

func normalizeStudentRequest(req models.StudentRequest) models.StudentRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Course = strings.TrimSpace(req.Course)
	req.Grade = strings.TrimSpace(req.Grade)
	return req
}

func applyStudentRequest(student *models.Student, req models.StudentRequest) {
	student.Name = req.Name
	student.Email = req.Email
	student.RollID = req.RollID
	student.Image = req.Image
	student.PersonalInfo = req.PersonalInfo
	student.GuardianDetails = req.GuardianDetails
	student.Course = req.Course
	student.CourseStartDate = req.CourseStartDate
	student.CourseEndDate = req.CourseEndDate
	if req.Status != "" {
		student.Status = req.Status
	}
	student.Marks = req.Marks
	student.Grade = req.Grade
	student.Documents = req.Documents
}

// studentWriteError maps unique violations to the field that collided.
func studentWriteError(err error, req models.StudentRequest, fallback string) error {
	constraint, ok := repository.UniqueViolation(err)
	if !ok {
		return internalError(err, fallback)
	}
	var message string
	switch constraint {
	case repository.StudentRollConstraint:
		message = fmt.Sprintf("Student with Roll Number %d already exists.", req.RollID)
	case repository.StudentEmailConstraint:
		message = fmt.Sprintf("Student with Email %s already exists.", req.Email)
	default:
		message = "Duplicate entry found."
	}
	return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}
