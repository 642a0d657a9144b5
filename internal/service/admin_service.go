package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type adminRepository interface {
	FindByID(ctx context.Context, id string) (*models.Admin, error)
	ExistsByEmailOrPhone(ctx context.Context, email, phone, excludeID string) (bool, error)
	ListByRole(ctx context.Context, role models.AdminRole) ([]models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdateProfile(ctx context.Context, admin *models.Admin) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

var errAdminNotFound = appErrors.Clone(appErrors.ErrNotFound, "User not found.")

// AdminService manages staff accounts.
type AdminService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AdminService{repo: repo, validator: validate, logger: logger}
}

// GetProfile returns an admin by id.
func (s *AdminService) GetProfile(ctx context.Context, id string) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errAdminNotFound
		}
		return nil, internalError(err, "failed to load admin")
	}
	return admin, nil
}

// EditProfile updates the profile of id on behalf of actor.
func (s *AdminService) EditProfile(ctx context.Context, actor models.Actor, id string, req models.UpdateProfileRequest) (*models.Admin, error) {
	if err := Authorize(actor, id, ActionEditProfile); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	admin, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	contactChanged := false
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
		}
		admin.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		contactChanged = contactChanged || email != admin.Email
		admin.Email = email
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		contactChanged = contactChanged || phone != admin.PhoneNumber
		admin.PhoneNumber = phone
	}
	if req.Avatar != nil {
		admin.Avatar = *req.Avatar
	}
	if req.Department != nil {
		admin.Department = *req.Department
	}
	if req.City != nil {
		admin.City = *req.City
	}
	if req.Subjects != nil {
		admin.Subjects = []string(*req.Subjects)
	}
	if req.AssignedClasses != nil {
		admin.AssignedClasses = []string(*req.AssignedClasses)
	}

	if contactChanged {
		taken, err := s.repo.ExistsByEmailOrPhone(ctx, admin.Email, admin.PhoneNumber, admin.ID)
		if err != nil {
			return nil, internalError(err, "failed to check admin uniqueness")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Admin with this Email or Phone number already exists.")
		}
	}

	if err := s.repo.UpdateProfile(ctx, admin); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, errAdminNotFound
		case isUnique(err):
			return nil, appErrors.Clone(appErrors.ErrConflict, "Duplicate entry found (Email or Phone).")
		}
		return nil, internalError(err, "failed to update profile")
	}
	return admin, nil
}

// AddTeacher registers a new staff account. The role defaults to TEACHER.
func (s *AdminService) AddTeacher(ctx context.Context, req models.CreateTeacherRequest) (*models.Admin, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Name == "" || req.Email == "" || req.PhoneNumber == "" || req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "All required fields must be provided.")
	}

	role := req.Role
	if role == "" {
		role = models.RoleTeacher
	}
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of: SUPER_ADMIN, TEACHER")
	}

	taken, err := s.repo.ExistsByEmailOrPhone(ctx, req.Email, req.PhoneNumber, "")
	if err != nil {
		return nil, internalError(err, "failed to check admin uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Admin with this Email or Phone number already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}

	admin := &models.Admin{
		Name:            req.Name,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		PasswordHash:    string(hash),
		Role:            role,
		Department:      req.Department,
		City:            req.City,
		Avatar:          req.Avatar,
		Subjects:        []string(req.Subjects),
		AssignedClasses: []string(req.AssignedClasses),
		IsActive:        true,
	}
	if employeeID := strings.TrimSpace(req.EmployeeID); employeeID != "" {
		admin.EmployeeID = &employeeID
	}
	if admin.Subjects == nil {
		admin.Subjects = []string{}
	}
	if admin.AssignedClasses == nil {
		admin.AssignedClasses = []string{}
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if isUnique(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Duplicate entry found (Email or Phone).")
		}
		return nil, internalError(err, "failed to create admin")
	}
	s.logger.Info("team member added", zap.String("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return admin, nil
}

// ListTeachers returns every account with the TEACHER role.
func (s *AdminService) ListTeachers(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.repo.ListByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, internalError(err, "failed to list admins")
	}
	return admins, nil
}

// ToggleActiveStatus flips the target account between active and disabled.
func (s *AdminService) ToggleActiveStatus(ctx context.Context, actor models.Actor, id string) (*models.Admin, error) {
	if err := Authorize(actor, id, ActionToggleStatus); err != nil {
		return nil, err
	}

	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Target user not found.")
		}
		return nil, internalError(err, "failed to load admin")
	}

	target.IsActive = !target.IsActive
	if err := s.repo.SetActive(ctx, id, target.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Target user not found.")
		}
		return nil, internalError(err, "failed to update status")
	}
	s.logger.Info("admin status changed", zap.String("actor_id", actor.ID), zap.String("admin_id", id), zap.Bool("active", target.IsActive))
	return target, nil
}

// DeleteAdmin removes the target account.
func (s *AdminService) DeleteAdmin(ctx context.Context, actor models.Actor, id string) error {
	if err := Authorize(actor, id, ActionDeleteAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errAdminNotFound
		}
		return internalError(err, "failed to delete admin")
	}
	s.logger.Info("admin deleted", zap.String("actor_id", actor.ID), zap.String("admin_id", id))
	return nil
}

func isUnique(err error) bool {
	_, ok := repository.UniqueViolation(err)
	return ok
}
