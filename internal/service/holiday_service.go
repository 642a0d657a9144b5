package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type holidayRepository interface {
	List(ctx context.Context) ([]models.Holiday, error)
	FindByID(ctx context.Context, id string) (*models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

var errHolidayNotFound = appErrors.Clone(appErrors.ErrNotFound, "Holiday not found")

// HolidayService manages the school's holiday calendar.
type HolidayService struct {
	repo      holidayRepository
	validator *validator.Validate
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewHolidayService constructs a HolidayService. "Today" is resolved in loc.
func NewHolidayService(repo holidayRepository, validate *validator.Validate, loc *time.Location, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = NewValidator()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, validator: validate, loc: loc, logger: logger, now: time.Now}
}

// List returns holidays in ascending date order.
func (s *HolidayService) List(ctx context.Context) ([]models.Holiday, error) {
	holidays, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list holidays")
	}
	return holidays, nil
}

// Add records a holiday. A second holiday on the same date is rejected.
func (s *HolidayService) Add(ctx context.Context, createdBy string, req models.CreateHolidayRequest) (*models.Holiday, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD or an ISO-8601 timestamp")
	}

	holiday := &models.Holiday{Date: date, Name: req.Name}
	if createdBy != "" {
		holiday.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, holiday); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok && constraint == repository.HolidayDateConstraint {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("Holiday already exists for %s", date.String()))
		}
		return nil, internalError(err, "failed to add holiday")
	}
	s.logger.Info("holiday added", zap.String("holiday_id", holiday.ID), zap.String("date", date.String()))
	return holiday, nil
}

// Delete removes an upcoming holiday. Holidays already in the past are kept.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errHolidayNotFound
		}
		return internalError(err, "failed to load holiday")
	}

	today := models.NewDate(s.now().In(s.loc))
	if holiday.Date.Before(today.Time) {
		return appErrors.Clone(appErrors.ErrValidation, "Cannot delete a past holiday")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errHolidayNotFound
		}
		return internalError(err, "failed to delete holiday")
	}
	s.logger.Info("holiday deleted", zap.String("holiday_id", id))
	return nil
}
