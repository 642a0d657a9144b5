package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/models"
)

// Handlers groups the HTTP handlers mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Admins       *AdminHandler
	Students     *StudentHandler
	Holidays     *HolidayHandler
	Attendance   *AttendanceHandler
	Stats        *StatsHandler
	Certificates *CertificateHandler
}

// RegisterRoutes mounts the admin API on group. Everything except the greeting and
// login runs behind protect; team, holiday and student deletion management is
// reserved for super admins.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, protect gin.HandlerFunc, logger *zap.Logger) {
	superAdmin := middleware.RestrictTo(models.RoleSuperAdmin)
	audit := func(action string) gin.HandlerFunc { return middleware.Audit(logger, action) }

	group.GET("/", h.Auth.Root)
	group.POST("/login", h.Auth.Login)

	authed := group.Group("")
	authed.Use(protect)

	authed.GET("/get-profile/:id", h.Auth.GetProfile)
	authed.PUT("/edit-profile/:id", audit("edit-profile"), h.Auth.EditProfile)
	authed.PUT("/change-password", audit("change-password"), h.Auth.ChangePassword)

	authed.POST("/add-new-teacher", superAdmin, audit("add-teacher"), h.Admins.AddTeacher)
	authed.GET("/get-all-admins", superAdmin, h.Admins.List)
	authed.PUT("/toggle-active-status/:id", superAdmin, audit("toggle-active-status"), h.Admins.ToggleActiveStatus)
	authed.DELETE("/delete-admin/:id", superAdmin, audit("delete-admin"), h.Admins.Delete)

	authed.GET("/get-holidays", h.Holidays.List)
	authed.POST("/add-holiday", superAdmin, audit("add-holiday"), h.Holidays.Add)
	authed.DELETE("/delete-holiday/:id", superAdmin, audit("delete-holiday"), h.Holidays.Delete)

	authed.GET("/get-stats", h.Stats.Daily)
	authed.GET("/get-attendance-stats/:viewMode", h.Stats.Overview)
	authed.GET("/get-gender-stats", h.Stats.Gender)
	authed.GET("/get-top-attendants", h.Stats.TopAttendants)
	authed.GET("/get-weekly-attendance/:viewMode", h.Stats.Weekly)

	authed.GET("/get-all-students", h.Students.List)
	authed.GET("/get-student/:id", h.Students.Get)
	authed.PUT("/edit-student-details", audit("edit-student"), h.Students.Edit)
	authed.POST("/register-new-student", audit("register-student"), h.Students.Register)
	authed.DELETE("/delete-student/:id", superAdmin, audit("delete-student"), h.Students.Delete)

	authed.POST("/mark-attendance", audit("mark-attendance"), h.Attendance.Mark)
	authed.GET("/get-attendance/:date", h.Attendance.Get)

	authed.GET("/generate-certificate/:id", h.Certificates.Generate)
}
