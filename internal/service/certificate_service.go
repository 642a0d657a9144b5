package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/certificate"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

// Certificate generation outcomes.
const (
	CertificateIssued     = "issued"
	CertificateIncomplete = "incomplete"
	CertificateFailed     = "failed"
	CertificateCancelled  = "cancelled"
)

type certificateStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	MarkCompleted(ctx context.Context, id, certificateID string) error
}

type certificateRenderer interface {
	Render(data certificate.Data) ([]byte, error)
}

type certificateArchive interface {
	Save(name string, data []byte) (string, error)
	Delete(name string) error
	Path(name string) string
}

// CertificateServiceConfig tunes certificate generation.
type CertificateServiceConfig struct {
	MaxConcurrent int
}

// IssuedCertificate is a rendered certificate ready to be streamed.
type IssuedCertificate struct {
	CertificateID string
	FileName      string
	PDF           []byte
	Student       *models.Student
}

// CertificateService renders completion certificates and closes the student's enrollment.
type CertificateService struct {
	students certificateStudentRepository
	renderer certificateRenderer
	archive  certificateArchive
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	slots    chan struct{}
	now      func() time.Time
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(students certificateStudentRepository, renderer certificateRenderer, archive certificateArchive, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg CertificateServiceConfig) *CertificateService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		students: students,
		renderer: renderer,
		archive:  archive,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		slots:    make(chan struct{}, cfg.MaxConcurrent),
		now:      time.Now,
	}
}

// MissingCertificateFields lists the required certificate fields the student lacks, in a fixed order.
func MissingCertificateFields(student *models.Student) []string {
	checks := []struct {
		name    string
		missing bool
	}{
		{"name", strings.TrimSpace(student.Name) == ""},
		{"aadharCard", strings.TrimSpace(student.PersonalInfo.AadharCard) == ""},
		{"course", strings.TrimSpace(student.Course) == ""},
		{"courseStartDate", student.CourseStartDate == nil || student.CourseStartDate.IsZero()},
		{"courseEndDate", student.CourseEndDate == nil || student.CourseEndDate.IsZero()},
		{"marks", student.Marks == nil},
		{"grade", strings.TrimSpace(student.Grade) == ""},
		{"attendance", strings.TrimSpace(student.Attendance) == ""},
	}
	missing := make([]string, 0)
	for _, c := range checks {
		if c.missing {
			missing = append(missing, c.name)
		}
	}
	return missing
}

// Generate renders the student's certificate, archives it and marks the student Completed.
func (s *CertificateService) Generate(ctx context.Context, studentID string) (*IssuedCertificate, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, internalError(err, "failed to load student")
	}

	if missing := MissingCertificateFields(student); len(missing) > 0 {
		s.metrics.RecordCertificate(CertificateIncomplete)
		appErr := appErrors.Clone(appErrors.ErrValidation, "Missing required fields: "+strings.Join(missing, ", "))
		return nil, appErrors.WithDetails(appErr, map[string]interface{}{"missingFields": missing})
	}

	certID := student.CertificateID
	reused := certID != ""
	if !reused {
		certID = newCertificateID(s.now())
	}

	pdf, err := s.render(ctx, certificate.Data{
		CertificateID:   certID,
		StudentName:     student.Name,
		RollNo:          student.RollID,
		AadharCard:      student.PersonalInfo.AadharCard,
		Course:          student.Course,
		CourseStartDate: student.CourseStartDate.Time,
		CourseEndDate:   student.CourseEndDate.Time,
		Marks:           strconv.FormatFloat(*student.Marks, 'f', -1, 64),
		Grade:           student.Grade,
		Attendance:      student.Attendance,
		IssuedAt:        s.now(),
	})
	if err != nil {
		if ctx.Err() != nil {
			s.metrics.RecordCertificate(CertificateCancelled)
			return nil, internalError(err, "certificate generation cancelled")
		}
		s.metrics.RecordCertificate(CertificateFailed)
		return nil, internalError(err, "failed to render certificate")
	}

	fileName := certID + ".pdf"
	if _, err := s.archive.Save(fileName, pdf); err != nil {
		s.metrics.RecordCertificate(CertificateFailed)
		return nil, internalError(err, "failed to archive certificate")
	}

	if err := s.students.MarkCompleted(ctx, student.ID, certID); err != nil {
		if !reused {
			if delErr := s.archive.Delete(fileName); delErr != nil {
				s.logger.Warn("failed to remove orphaned certificate", zap.String("file", fileName), zap.Error(delErr))
			}
		}
		s.metrics.RecordCertificate(CertificateFailed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, internalError(err, "failed to update student")
	}
	student.Status = models.StudentCompleted
	student.CertificateID = certID

	s.metrics.RecordCertificate(CertificateIssued)
	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("certificate issued",
		zap.String("student_id", student.ID),
		zap.String("certificate_id", certID),
		zap.Bool("reissued", reused),
		zap.String("path", s.archive.Path(fileName)),
	)
	return &IssuedCertificate{CertificateID: certID, FileName: fileName, PDF: pdf, Student: student}, nil
}

type renderResult struct {
	pdf []byte
	err error
}

// render draws the PDF in its own goroutine, bounded by the slot pool. A cancelled
// caller stops waiting; the goroutine finishes and frees its slot on its own.
func (s *CertificateService) render(ctx context.Context, data certificate.Data) ([]byte, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	done := make(chan renderResult, 1)
	go func() {
		defer func() { <-s.slots }()
		pdf, err := s.renderer.Render(data)
		done <- renderResult{pdf: pdf, err: err}
	}()

	select {
	case res := <-done:
		return res.pdf, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newCertificateID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return fmt.Sprintf("CERT-%d-%s", now.Year(), suffix)
}
