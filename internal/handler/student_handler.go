package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Register(ctx context.Context, registrarID string, req models.StudentRequest) (*models.Student, error)
	Edit(ctx context.Context, req models.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) (*models.Student, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name, email or roll number"
// @Param status query string false "Filter by status"
// @Param course query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /get-all-students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search: c.Query("search"),
		Status: models.StudentStatus(strings.TrimSpace(c.Query("status"))),
		Course: strings.TrimSpace(c.Query("course")),
	}
	students, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /get-student/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Register godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /register-new-student [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req models.StudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	var registrarID string
	if admin := middleware.CurrentAdmin(c); admin != nil {
		registrarID = admin.ID
	}
	student, err := h.students.Register(c.Request.Context(), registrarID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "", student)
}

// Edit godoc
// @Summary Edit student details
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.StudentRequest true "Student payload including id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /edit-student-details [put]
func (h *StudentHandler) Edit(c *gin.Context) {
	var req models.StudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Edit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /delete-student/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	student, err := h.students.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}
