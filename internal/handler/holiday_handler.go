package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type holidayService interface {
	List(ctx context.Context) ([]models.Holiday, error)
	Add(ctx context.Context, createdBy string, req models.CreateHolidayRequest) (*models.Holiday, error)
	Delete(ctx context.Context, id string) error
}

// HolidayHandler exposes the holiday calendar.
type HolidayHandler struct {
	holidays holidayService
}

// NewHolidayHandler constructs HolidayHandler.
func NewHolidayHandler(holidays holidayService) *HolidayHandler {
	return &HolidayHandler{holidays: holidays}
}

// List godoc
// @Summary List holidays
// @Tags Holidays
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /get-holidays [get]
func (h *HolidayHandler) List(c *gin.Context) {
	holidays, err := h.holidays.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, holidays)
}

// Add godoc
// @Summary Add a holiday
// @Tags Holidays
// @Accept json
// @Produce json
// @Param payload body models.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /add-holiday [post]
func (h *HolidayHandler) Add(c *gin.Context) {
	var req models.CreateHolidayRequest
	if !bindJSON(c, &req, "invalid holiday payload") {
		return
	}
	var createdBy string
	if admin := middleware.CurrentAdmin(c); admin != nil {
		createdBy = admin.ID
	}
	holiday, err := h.holidays.Add(c.Request.Context(), createdBy, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Holiday added successfully", holiday)
}

// Delete godoc
// @Summary Delete an upcoming holiday
// @Tags Holidays
// @Produce json
// @Param id path string true "Holiday ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /delete-holiday/{id} [delete]
func (h *HolidayHandler) Delete(c *gin.Context) {
	if err := h.holidays.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Holiday deleted successfully", nil)
}
