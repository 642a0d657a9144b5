package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and a compact user view.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// UserInfo describes the authenticated admin in responses.
type UserInfo struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Role  AdminRole `json:"role"`
	Email string    `json:"email"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// JWTClaims represents the token payload.
type JWTClaims struct {
	ID   string    `json:"id"`
	Role AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the authenticated admin performing a request.
type Actor struct {
	ID   string
	Role AdminRole
}

// IsSuperAdmin reports whether the actor holds the SUPER_ADMIN role.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}
