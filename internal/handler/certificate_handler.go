package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/service"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type certificateService interface {
	Generate(ctx context.Context, studentID string) (*service.IssuedCertificate, error)
}

// CertificateHandler streams completion certificates.
type CertificateHandler struct {
	certificates certificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates certificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Generate godoc
// @Summary Generate a completion certificate
// @Description Renders the PDF, archives it and marks the student Completed
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /generate-certificate/{id} [get]
func (h *CertificateHandler) Generate(c *gin.Context) {
	issued, err := h.certificates.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", issued.FileName))
	c.Header("X-Certificate-ID", issued.CertificateID)
	c.Data(http.StatusOK, "application/pdf", issued.PDF)
}
