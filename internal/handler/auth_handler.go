package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ChangePassword(ctx context.Context, adminID string, req models.ChangePasswordRequest) error
}

type profileService interface {
	GetProfile(ctx context.Context, id string) (*models.Admin, error)
	EditProfile(ctx context.Context, actor models.Actor, id string, req models.UpdateProfileRequest) (*models.Admin, error)
}

// AuthHandler wires login and self-service profile endpoints.
type AuthHandler struct {
	auth     authService
	profiles profileService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth authService, profiles profileService) *AuthHandler {
	return &AuthHandler{auth: auth, profiles: profiles}
}

// Root godoc
// @Summary Liveness greeting
// @Tags Authentication
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *AuthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Hello Admin")
}

// Login godoc
// @Summary Authenticate admin
// @Description Authenticate an admin or teacher by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("Welcome back, %s", res.User.Name), res)
}

// GetProfile godoc
// @Summary Get admin profile
// @Tags Profile
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /get-profile/{id} [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	admin, err := h.profiles.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin)
}

// EditProfile godoc
// @Summary Edit admin profile
// @Description Admins edit their own profile; a super admin may edit anyone
// @Tags Profile
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /edit-profile/{id} [put]
func (h *AuthHandler) EditProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}

	admin, err := h.profiles.EditProfile(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change the password of the authenticated admin
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Password payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /change-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), actor.ID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Password updated successfully", nil)
}
