package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
)

// AdminRole enumerates the roles an admin account can hold.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "SUPER_ADMIN"
	RoleTeacher    AdminRole = "TEACHER"
)

// Valid reports whether the role is one of the known roles.
func (r AdminRole) Valid() bool {
	return r == RoleSuperAdmin || r == RoleTeacher
}

// Admin is a staff account stored in the admins table.
type Admin struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	EmployeeID      *string        `db:"employee_id" json:"employeeId,omitempty"`
	PhoneNumber     string         `db:"phone_number" json:"phoneNumber"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    string         `db:"password_hash" json:"-"`
	Avatar          string         `db:"avatar" json:"avatar"`
	Role            AdminRole      `db:"role" json:"role"`
	Department      string         `db:"department" json:"department"`
	Subjects        pq.StringArray `db:"subjects" json:"subjects"`
	AssignedClasses pq.StringArray `db:"assigned_classes" json:"assignedClasses"`
	City            string         `db:"city" json:"city"`
	LastLogin       *time.Time     `db:"last_login" json:"lastLogin,omitempty"`
	IsActive        bool           `db:"is_active" json:"isActive"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// StringList accepts either a JSON array of strings or a comma separated string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*l = nil
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = trimAll(items)
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*l = trimAll(strings.Split(joined, ","))
	return nil
}

func trimAll(items []string) StringList {
	out := make(StringList, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// CreateTeacherRequest registers a new staff account.
type CreateTeacherRequest struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phoneNumber"`
	Password        string     `json:"password"`
	EmployeeID      string     `json:"employeeId"`
	Role            AdminRole  `json:"role"`
	Department      string     `json:"department"`
	Subjects        StringList `json:"subjects"`
	AssignedClasses StringList `json:"assignedClasses"`
	City            string     `json:"city"`
	Avatar          string     `json:"avatar"`
}

// UpdateProfileRequest carries the editable profile fields. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name            *string     `json:"name"`
	PhoneNumber     *string     `json:"phoneNumber"`
	Email           *string     `json:"email" validate:"omitempty,email"`
	Avatar          *string     `json:"avatar"`
	Department      *string     `json:"department"`
	City            *string     `json:"city"`
	Subjects        *StringList `json:"subjects"`
	AssignedClasses *StringList `json:"assignedClasses"`
}
