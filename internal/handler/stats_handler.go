package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type statsService interface {
	DailyStats(ctx context.Context) ([]models.StatCard, error)
	AttendanceOverview(ctx context.Context, viewMode string) ([]models.ChartPoint, error)
	GenderStats(ctx context.Context) ([]models.GenderCount, error)
	TopAttendants(ctx context.Context) ([]models.TopAttendant, error)
	WeeklyAttendance(ctx context.Context, viewMode string) ([]models.ChartPoint, error)
}

// StatsHandler serves dashboard aggregations.
type StatsHandler struct {
	stats statsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats statsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Daily godoc
// @Summary Today's attendance cards
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /get-stats [get]
func (h *StatsHandler) Daily(c *gin.Context) {
	respond(c, func(ctx context.Context) (interface{}, error) { return h.stats.DailyStats(ctx) })
}

// Overview godoc
// @Summary Monthly or yearly attendance averages
// @Tags Stats
// @Produce json
// @Param viewMode path string true "monthly or yearly"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /get-attendance-stats/{viewMode} [get]
func (h *StatsHandler) Overview(c *gin.Context) {
	viewMode := c.Param("viewMode")
	respond(c, func(ctx context.Context) (interface{}, error) { return h.stats.AttendanceOverview(ctx, viewMode) })
}

// Gender godoc
// @Summary Students per gender
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /get-gender-stats [get]
func (h *StatsHandler) Gender(c *gin.Context) {
	respond(c, func(ctx context.Context) (interface{}, error) { return h.stats.GenderStats(ctx) })
}

// TopAttendants godoc
// @Summary Top five attendants this month
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /get-top-attendants [get]
func (h *StatsHandler) TopAttendants(c *gin.Context) {
	respond(c, func(ctx context.Context) (interface{}, error) { return h.stats.TopAttendants(ctx) })
}

// Weekly godoc
// @Summary Present or absent percentage for each day of the week
// @Tags Stats
// @Produce json
// @Param viewMode path string true "present or absent"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /get-weekly-attendance/{viewMode} [get]
func (h *StatsHandler) Weekly(c *gin.Context) {
	viewMode := c.Param("viewMode")
	respond(c, func(ctx context.Context) (interface{}, error) { return h.stats.WeeklyAttendance(ctx, viewMode) })
}

func respond(c *gin.Context, load func(context.Context) (interface{}, error)) {
	data, err := load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data)
}
