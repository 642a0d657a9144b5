package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/pkg/certificate"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type fakeCertificateStudents struct {
	mu        sync.Mutex
	students  map[string]*models.Student
	markErr   error
	completed map[string]string
}

func newFakeCertificateStudents(students ...*models.Student) *fakeCertificateStudents {
	f := &fakeCertificateStudents{students: map[string]*models.Student{}, completed: map[string]string{}}
	for _, st := range students {
		f.students[st.ID] = st
	}
	return f
}

func (f *fakeCertificateStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *st
	return &copy, nil
}

func (f *fakeCertificateStudents) MarkCompleted(_ context.Context, id, certificateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	st := f.students[id]
	st.Status = models.StudentCompleted
	st.CertificateID = certificateID
	f.completed[id] = certificateID
	return nil
}

type fakeRenderer struct {
	block    chan struct{}
	active   int32
	peak     int32
	rendered []certificate.Data
	mu       sync.Mutex
}

func (r *fakeRenderer) Render(data certificate.Data) ([]byte, error) {
	n := atomic.AddInt32(&r.active, 1)
	defer atomic.AddInt32(&r.active, -1)
	for {
		peak := atomic.LoadInt32(&r.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&r.peak, peak, n) {
			break
		}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.rendered = append(r.rendered, data)
	r.mu.Unlock()
	return []byte("%PDF-" + data.CertificateID), nil
}

type memoryArchive struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{files: map[string][]byte{}}
}

func (a *memoryArchive) Save(name string, data []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[name] = data
	return name, nil
}

func (a *memoryArchive) Delete(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, name)
	return nil
}

func (a *memoryArchive) Path(name string) string { return "mem://" + name }

func completeStudent(id string) *models.Student {
	start := models.NewDate(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	end := models.NewDate(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	marks := 87.5
	return &models.Student{
		ID:              id,
		Name:            "Meera Nair",
		RollID:          12,
		PersonalInfo:    models.PersonalInfo{AadharCard: "1234-5678-9012"},
		Course:          "Web Development",
		CourseStartDate: &start,
		CourseEndDate:   &end,
		Marks:           &marks,
		Grade:           "A",
		Attendance:      "92%",
		Status:          models.StudentActive,
	}
}

func TestGenerateCertificate(t *testing.T) {
	students := newFakeCertificateStudents(completeStudent("st-1"))
	renderer := &fakeRenderer{}
	archive := newMemoryArchive()
	svc := NewCertificateService(students, renderer, archive, nil, NewMetricsService(), nil, CertificateServiceConfig{MaxConcurrent: 1})

	issued, err := svc.Generate(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Regexp(t, `^CERT-\d{4}-[0-9A-F]{10}$`, issued.CertificateID)
	assert.Equal(t, issued.CertificateID+".pdf", issued.FileName)
	assert.Equal(t, models.StudentCompleted, issued.Student.Status)
	assert.Contains(t, archive.files, issued.FileName)
	assert.Equal(t, issued.CertificateID, students.completed["st-1"])
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, "87.5", renderer.rendered[0].Marks)
	assert.Equal(t, 12, renderer.rendered[0].RollNo)

	again, err := svc.Generate(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, issued.CertificateID, again.CertificateID)
}

func TestGenerateCertificateMissingFields(t *testing.T) {
	incomplete := completeStudent("st-2")
	incomplete.PersonalInfo.AadharCard = ""
	incomplete.Marks = nil
	incomplete.CourseEndDate = nil
	students := newFakeCertificateStudents(incomplete)
	renderer := &fakeRenderer{}
	svc := NewCertificateService(students, renderer, newMemoryArchive(), nil, nil, nil, CertificateServiceConfig{})

	_, err := svc.Generate(context.Background(), "st-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "Missing required fields: aadharCard, courseEndDate, marks", appErr.Message)
	assert.Equal(t, map[string]interface{}{"missingFields": []string{"aadharCard", "courseEndDate", "marks"}}, appErr.Details)
	assert.Empty(t, renderer.rendered)
	assert.Equal(t, models.StudentActive, students.students["st-2"].Status)
	assert.Empty(t, students.students["st-2"].CertificateID)
}

func TestGenerateCertificateUnknownStudent(t *testing.T) {
	svc := NewCertificateService(newFakeCertificateStudents(), &fakeRenderer{}, newMemoryArchive(), nil, nil, nil, CertificateServiceConfig{})

	_, err := svc.Generate(context.Background(), "ghost")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestGenerateCertificateRemovesOrphanOnUpdateFailure(t *testing.T) {
	students := newFakeCertificateStudents(completeStudent("st-1"))
	students.markErr = errors.New("connection reset")
	archive := newMemoryArchive()
	svc := NewCertificateService(students, &fakeRenderer{}, archive, nil, nil, nil, CertificateServiceConfig{})

	_, err := svc.Generate(context.Background(), "st-1")
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
	assert.Empty(t, archive.files)
	assert.Empty(t, students.students["st-1"].CertificateID)
}

func TestGenerateCertificateStopsWaitingOnCancel(t *testing.T) {
	renderer := &fakeRenderer{block: make(chan struct{})}
	students := newFakeCertificateStudents(completeStudent("st-1"))
	svc := NewCertificateService(students, renderer, newMemoryArchive(), nil, nil, nil, CertificateServiceConfig{MaxConcurrent: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Generate(ctx, "st-1")
	require.Error(t, err)
	assert.Empty(t, students.completed)

	close(renderer.block)
	assert.Eventually(t, func() bool { return len(svc.slots) == 0 }, time.Second, 5*time.Millisecond)
}

func TestGenerateCertificateBoundsConcurrency(t *testing.T) {
	renderer := &fakeRenderer{block: make(chan struct{})}
	students := newFakeCertificateStudents(completeStudent("st-1"), completeStudent("st-2"), completeStudent("st-3"))
	svc := NewCertificateService(students, renderer, newMemoryArchive(), nil, nil, nil, CertificateServiceConfig{MaxConcurrent: 2})

	var wg sync.WaitGroup
	for _, id := range []string{"st-1", "st-2", "st-3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Generate(context.Background(), id)
			assert.NoError(t, err)
		}(id)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&renderer.active) == 2 }, time.Second, 5*time.Millisecond)
	close(renderer.block)
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&renderer.peak), int32(2))
	assert.Len(t, students.completed, 3)
}
