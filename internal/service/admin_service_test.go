package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type mockAdminRepo struct {
	admins    map[string]*models.Admin
	createErr error
	lastLogin map[string]time.Time
}

func newMockAdminRepo(admins ...*models.Admin) *mockAdminRepo {
	repo := &mockAdminRepo{admins: map[string]*models.Admin{}, lastLogin: map[string]time.Time{}}
	for _, a := range admins {
		repo.admins[a.ID] = a
	}
	return repo
}

func (m *mockAdminRepo) FindByEmail(_ context.Context, email string) (*models.Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			copy := *a
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByID(_ context.Context, id string) (*models.Admin, error) {
	if a, ok := m.admins[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) ExistsByEmailOrPhone(_ context.Context, email, phone, excludeID string) (bool, error) {
	for id, a := range m.admins {
		if id != excludeID && (a.Email == email || a.PhoneNumber == phone) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAdminRepo) ListByRole(_ context.Context, role models.AdminRole) ([]models.Admin, error) {
	var out []models.Admin
	for _, a := range m.admins {
		if a.Role == role {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAdminRepo) Create(_ context.Context, admin *models.Admin) error {
	if m.createErr != nil {
		return m.createErr
	}
	if admin.ID == "" {
		admin.ID = "new-admin"
	}
	copy := *admin
	m.admins[admin.ID] = &copy
	return nil
}

func (m *mockAdminRepo) UpdateProfile(_ context.Context, admin *models.Admin) error {
	if _, ok := m.admins[admin.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *admin
	m.admins[admin.ID] = &copy
	return nil
}

func (m *mockAdminRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	m.lastLogin[id] = ts
	return nil
}

func (m *mockAdminRepo) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	a, ok := m.admins[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.PasswordHash = hash
	return nil
}

func (m *mockAdminRepo) SetActive(_ context.Context, id string, active bool) error {
	a, ok := m.admins[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.IsActive = active
	return nil
}

func (m *mockAdminRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.admins[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.admins, id)
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func statusOf(err error) int {
	return appErrors.FromError(err).Status
}

func TestAddTeacher(t *testing.T) {
	repo := newMockAdminRepo(&models.Admin{ID: "a1", Email: "taken@school.test", PhoneNumber: "111", Role: models.RoleTeacher})
	svc := NewAdminService(repo, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddTeacher(ctx, models.CreateTeacherRequest{Name: "Ravi", Email: "ravi@school.test"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Equal(t, "All required fields must be provided.", appErrors.FromError(err).Message)

	_, err = svc.AddTeacher(ctx, models.CreateTeacherRequest{Name: "Ravi", Email: "RAVI@school.test", PhoneNumber: "111", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	admin, err := svc.AddTeacher(ctx, models.CreateTeacherRequest{
		Name:            "Ravi",
		Email:           "RAVI@school.test",
		PhoneNumber:     "222",
		Password:        "secret1",
		AssignedClasses: models.StringList{"10A", "10B"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, admin.Role)
	assert.Equal(t, "ravi@school.test", admin.Email)
	assert.True(t, admin.IsActive)
	assert.Equal(t, []string{"10A", "10B"}, []string(admin.AssignedClasses))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("secret1")))
}

func TestAddTeacherMapsRaceToConflict(t *testing.T) {
	repo := newMockAdminRepo()
	repo.createErr = &pq.Error{Code: "23505", Constraint: "admins_email_key"}
	svc := NewAdminService(repo, nil, nil)

	_, err := svc.AddTeacher(context.Background(), models.CreateTeacherRequest{Name: "A", Email: "a@school.test", PhoneNumber: "1", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestToggleActiveStatus(t *testing.T) {
	repo := newMockAdminRepo(
		&models.Admin{ID: "root", Role: models.RoleSuperAdmin, IsActive: true},
		&models.Admin{ID: "t1", Role: models.RoleTeacher, IsActive: true},
	)
	svc := NewAdminService(repo, nil, nil)
	super := models.Actor{ID: "root", Role: models.RoleSuperAdmin}

	admin, err := svc.ToggleActiveStatus(context.Background(), super, "t1")
	require.NoError(t, err)
	assert.False(t, admin.IsActive)
	assert.False(t, repo.admins["t1"].IsActive)

	_, err = svc.ToggleActiveStatus(context.Background(), super, "root")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	assert.True(t, repo.admins["root"].IsActive)

	_, err = svc.ToggleActiveStatus(context.Background(), super, "ghost")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestDeleteAdmin(t *testing.T) {
	repo := newMockAdminRepo(
		&models.Admin{ID: "root", Role: models.RoleSuperAdmin},
		&models.Admin{ID: "t1", Role: models.RoleTeacher},
	)
	svc := NewAdminService(repo, nil, nil)
	super := models.Actor{ID: "root", Role: models.RoleSuperAdmin}

	err := svc.DeleteAdmin(context.Background(), super, "root")
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	assert.Contains(t, repo.admins, "root")

	require.NoError(t, svc.DeleteAdmin(context.Background(), super, "t1"))
	assert.NotContains(t, repo.admins, "t1")

	err = svc.DeleteAdmin(context.Background(), super, "t1")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestEditProfile(t *testing.T) {
	repo := newMockAdminRepo(
		&models.Admin{ID: "t1", Name: "Old", Email: "t1@school.test", PhoneNumber: "1", Role: models.RoleTeacher},
		&models.Admin{ID: "t2", Name: "Other", Email: "t2@school.test", PhoneNumber: "2", Role: models.RoleTeacher},
	)
	svc := NewAdminService(repo, nil, nil)
	self := models.Actor{ID: "t1", Role: models.RoleTeacher}

	name := "New Name"
	classes := models.StringList{"9C"}
	admin, err := svc.EditProfile(context.Background(), self, "t1", models.UpdateProfileRequest{Name: &name, AssignedClasses: &classes})
	require.NoError(t, err)
	assert.Equal(t, "New Name", admin.Name)
	assert.Equal(t, []string{"9C"}, []string(repo.admins["t1"].AssignedClasses))

	_, err = svc.EditProfile(context.Background(), self, "t2", models.UpdateProfileRequest{Name: &name})
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	email := "t2@school.test"
	_, err = svc.EditProfile(context.Background(), self, "t1", models.UpdateProfileRequest{Email: &email})
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestListTeachersOnlyReturnsTeachers(t *testing.T) {
	repo := newMockAdminRepo(
		&models.Admin{ID: "root", Role: models.RoleSuperAdmin},
		&models.Admin{ID: "t1", Role: models.RoleTeacher},
	)
	svc := NewAdminService(repo, nil, nil)

	admins, err := svc.ListTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "t1", admins[0].ID)
}
