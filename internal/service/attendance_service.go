package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/jobs"
	"github.com/noah-isme/sma-attendance-api/pkg/middleware/requestid"
)

// JobRefreshStudentAttendance recomputes student attendance display strings after a capture.
const JobRefreshStudentAttendance = "refresh_student_attendance"

// statsCachePattern matches every cached aggregation.
const statsCachePattern = "stats:*"

type attendanceRepository interface {
	Create(ctx context.Context, att *models.Attendance) error
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
}

// JobEnqueuer accepts background jobs.
type JobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AttendanceService captures one sealed attendance record per calendar day.
type AttendanceService struct {
	repo      attendanceRepository
	cache     *CacheService
	metrics   *MetricsService
	jobs      JobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the capture service. cache, metrics and jobs are optional.
func NewAttendanceService(repo attendanceRepository, cache *CacheService, metrics *MetricsService, jobQueue JobEnqueuer, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, cache: cache, metrics: metrics, jobs: jobQueue, validator: validate, logger: logger}
}

// Submit validates the day's records, computes the summary and stores the day atomically.
func (s *AttendanceService) Submit(ctx context.Context, recorderID string, req models.MarkAttendanceRequest) (*models.Attendance, error) {
	if len(req.Records) == 0 {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, appErrors.Clone(appErrors.ErrValidation, "No attendance records provided")
	}
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, validationError(err)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD or an ISO-8601 timestamp")
	}

	records := make(models.AttendanceRecords, len(req.Records))
	copy(records, req.Records)
	att := &models.Attendance{
		ID:        date.String(),
		Date:      date,
		Attendant: recorderID,
		Records:   records,
		Summary:   models.Summarize(records),
	}

	if err := s.repo.Create(ctx, att); err != nil {
		if errors.Is(err, repository.ErrAttendanceExists) {
			s.metrics.RecordSubmission(SubmissionDuplicate)
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("Attendance already marked for %s", att.ID))
		}
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, internalError(err, "failed to save attendance")
	}

	s.metrics.RecordSubmission(SubmissionAccepted)
	s.cache.Invalidate(ctx, statsCachePattern)
	if s.jobs != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: JobRefreshStudentAttendance, Payload: att.ID}
		if err := s.jobs.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue attendance refresh", zap.String("date", att.ID), zap.Error(err))
		}
	}
	s.logger.Info("attendance recorded",
		zap.String("date", att.ID),
		zap.String("attendant", recorderID),
		zap.Int("total", att.Summary.TotalStudents),
		zap.Float64("percentage", att.Summary.AttendancePercentage),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return att, nil
}

// Get returns the stored attendance for a date given as YYYY-MM-DD or RFC3339.
func (s *AttendanceService) Get(ctx context.Context, rawDate string) (*models.Attendance, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD or an ISO-8601 timestamp")
	}
	att, err := s.repo.FindByID(ctx, date.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("No attendance found for %s", date.String()))
		}
		return nil, internalError(err, "failed to load attendance")
	}
	return att, nil
}

type attendanceRefresher interface {
	RefreshAttendance(ctx context.Context, dateKey string) (int64, error)
}

// NewAttendanceRefreshJob returns the job handler that rewrites each listed student's attendance string.
func NewAttendanceRefreshJob(repo attendanceRefresher, cache *CacheService, metrics *MetricsService, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		dateKey, ok := job.Payload.(string)
		if !ok || dateKey == "" {
			logger.Error("invalid attendance refresh payload", zap.String("job_id", job.ID), zap.Any("payload", job.Payload))
			return nil
		}
		updated, err := repo.RefreshAttendance(ctx, dateKey)
		metrics.RecordJob(job.Type, err)
		if err != nil {
			return err
		}
		cache.Invalidate(ctx, statsCachePattern)
		logger.Info("student attendance refreshed", zap.String("date", dateKey), zap.Int64("students", updated))
		return nil
	}
}
