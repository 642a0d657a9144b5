package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type adminService interface {
	AddTeacher(ctx context.Context, req models.CreateTeacherRequest) (*models.Admin, error)
	ListTeachers(ctx context.Context) ([]models.Admin, error)
	ToggleActiveStatus(ctx context.Context, actor models.Actor, id string) (*models.Admin, error)
	DeleteAdmin(ctx context.Context, actor models.Actor, id string) error
}

// AdminHandler exposes super admin team management.
type AdminHandler struct {
	admins adminService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admins adminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// AddTeacher godoc
// @Summary Add team member
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body models.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /add-new-teacher [post]
func (h *AdminHandler) AddTeacher(c *gin.Context) {
	var req models.CreateTeacherRequest
	if !bindJSON(c, &req, "invalid teacher payload") {
		return
	}
	admin, err := h.admins.AddTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "New team member added successfully!", admin)
}

// List godoc
// @Summary List teachers
// @Tags Admins
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /get-all-admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.admins.ListTeachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins)
}

// ToggleActiveStatus godoc
// @Summary Activate or deactivate an account
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /toggle-active-status/{id} [put]
func (h *AdminHandler) ToggleActiveStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	admin, err := h.admins.ToggleActiveStatus(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	state := "deactivated"
	if admin.IsActive {
		state = "activated"
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("User %s successfully.", state), admin)
}

// Delete godoc
// @Summary Delete an account
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /delete-admin/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.admins.DeleteAdmin(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted successfully.", nil)
}
