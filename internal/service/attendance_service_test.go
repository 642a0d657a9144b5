package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/jobs"
)

type fakeAttendanceRepo struct {
	mu        sync.Mutex
	days      map[string]models.Attendance
	createErr error
}

func newFakeAttendanceRepo(days ...models.Attendance) *fakeAttendanceRepo {
	repo := &fakeAttendanceRepo{days: map[string]models.Attendance{}}
	for _, d := range days {
		repo.days[d.ID] = d
	}
	return repo
}

func (f *fakeAttendanceRepo) Create(_ context.Context, att *models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.days[att.ID]; ok {
		return repository.ErrAttendanceExists
	}
	f.days[att.ID] = *att
	return nil
}

func (f *fakeAttendanceRepo) FindByID(_ context.Context, id string) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if att, ok := f.days[id]; ok {
		return &att, nil
	}
	return nil, sql.ErrNoRows
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeCacheRepo struct {
	mu          sync.Mutex
	values      map[string]interface{}
	invalidated []string
	getErr      error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return fmt.Errorf("cache dest must be a non-nil pointer, got %T", dest)
	}
	target.Elem().Set(reflect.ValueOf(v))
	return nil
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, pattern)
	f.values = map[string]interface{}{}
	return nil
}

func records(present, absent, leave int) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, present+absent+leave)
	add := func(n int, status models.AttendanceStatus) {
		for i := 0; i < n; i++ {
			idx := len(out) + 1
			out = append(out, models.AttendanceRecord{
				StudentID: fmt.Sprintf("s%d", idx),
				Name:      fmt.Sprintf("Student %d", idx),
				RollNo:    models.FlexibleString(fmt.Sprintf("%d", idx)),
				Status:    status,
			})
		}
	}
	add(present, models.StatusPresent)
	add(absent, models.StatusAbsent)
	add(leave, models.StatusLeave)
	return out
}

func TestSubmitAttendanceScenario(t *testing.T) {
	repo := newFakeAttendanceRepo()
	cacheRepo := newFakeCacheRepo()
	queue := &recordingQueue{}
	svc := NewAttendanceService(repo, NewCacheService(cacheRepo, nil, 0, nil, true), NewMetricsService(), queue, nil, nil)

	att, err := svc.Submit(context.Background(), "admin-1", models.MarkAttendanceRequest{Date: "2024-05-01", Records: records(18, 2, 0)})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", att.ID)
	assert.Equal(t, models.AttendanceSummary{TotalStudents: 20, PresentCount: 18, AbsentCount: 2, LeaveCount: 0, AttendancePercentage: 90}, att.Summary)
	assert.Equal(t, []string{statsCachePattern}, cacheRepo.invalidated)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobRefreshStudentAttendance, queue.jobs[0].Type)
	assert.Equal(t, "2024-05-01", queue.jobs[0].Payload)

	_, err = svc.Submit(context.Background(), "admin-2", models.MarkAttendanceRequest{Date: "2024-05-01T10:00:00Z", Records: records(1, 0, 0)})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, "Attendance already marked for 2024-05-01", appErrors.FromError(err).Message)

	stored, err := svc.Get(context.Background(), "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Summary.TotalStudents)
	assert.Equal(t, "admin-1", stored.Attendant)
}

func TestSubmitAttendanceSummaryInvariant(t *testing.T) {
	cases := []struct{ present, absent, leave int }{
		{0, 0, 1}, {1, 1, 1}, {2, 1, 0}, {7, 0, 0}, {0, 5, 0}, {13, 4, 3},
	}
	for i, tc := range cases {
		svc := NewAttendanceService(newFakeAttendanceRepo(), nil, nil, nil, nil, nil)
		att, err := svc.Submit(context.Background(), "a", models.MarkAttendanceRequest{
			Date:    fmt.Sprintf("2024-06-%02d", i+1),
			Records: records(tc.present, tc.absent, tc.leave),
		})
		require.NoError(t, err)
		s := att.Summary
		assert.Equal(t, len(att.Records), s.TotalStudents)
		assert.Equal(t, s.TotalStudents, s.PresentCount+s.AbsentCount+s.LeaveCount)
		assert.Equal(t, models.Round2(float64(tc.present)/float64(s.TotalStudents)*100), s.AttendancePercentage)
	}
}

func TestSubmitAttendanceValidation(t *testing.T) {
	svc := NewAttendanceService(newFakeAttendanceRepo(), nil, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "a", models.MarkAttendanceRequest{Date: "2024-05-01"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Equal(t, "No attendance records provided", appErrors.FromError(err).Message)

	bad := records(1, 0, 0)
	bad[0].Status = "late"
	_, err = svc.Submit(ctx, "a", models.MarkAttendanceRequest{Date: "2024-05-01", Records: bad})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Contains(t, appErrors.FromError(err).Message, "records[0].status")

	_, err = svc.Submit(ctx, "a", models.MarkAttendanceRequest{Date: "01/05/2024", Records: records(1, 0, 0)})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestSubmitAttendanceRejectsRepeatedStudent(t *testing.T) {
	repo := newFakeAttendanceRepo()
	svc := NewAttendanceService(repo, nil, nil, nil, nil, nil)

	twice := records(2, 0, 0)
	twice[1].StudentID = twice[0].StudentID
	_, err := svc.Submit(context.Background(), "a", models.MarkAttendanceRequest{Date: "2024-05-01", Records: twice})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Equal(t, "records must not list the same student more than once", appErrors.FromError(err).Message)

	_, err = svc.Get(context.Background(), "2024-05-01")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestSubmitAttendanceStorageFailure(t *testing.T) {
	repo := newFakeAttendanceRepo()
	repo.createErr = errors.New("tx aborted")
	queue := &recordingQueue{}
	svc := NewAttendanceService(repo, nil, nil, queue, nil, nil)

	_, err := svc.Submit(context.Background(), "a", models.MarkAttendanceRequest{Date: "2024-05-01", Records: records(1, 0, 0)})
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
	assert.Empty(t, queue.jobs)
}

func TestSubmitAttendanceConcurrentSameDay(t *testing.T) {
	svc := NewAttendanceService(newFakeAttendanceRepo(), nil, nil, nil, nil, nil)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), "a", models.MarkAttendanceRequest{Date: "2024-05-02", Records: records(3, 1, 0)})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted, conflicts := 0, 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		if statusOf(err) == http.StatusConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, workers-1, conflicts)
}

func TestGetAttendance(t *testing.T) {
	svc := NewAttendanceService(newFakeAttendanceRepo(), nil, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "2024-05-01")
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = svc.Get(context.Background(), "yesterday")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

type fakeRefresher struct {
	dates []string
	err   error
}

func (f *fakeRefresher) RefreshAttendance(_ context.Context, dateKey string) (int64, error) {
	f.dates = append(f.dates, dateKey)
	return 3, f.err
}

func TestAttendanceRefreshJob(t *testing.T) {
	refresher := &fakeRefresher{}
	handler := NewAttendanceRefreshJob(refresher, nil, nil, nil)

	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobRefreshStudentAttendance, Payload: "2024-05-01"}))
	assert.Equal(t, []string{"2024-05-01"}, refresher.dates)

	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobRefreshStudentAttendance, Payload: 42}))
	assert.Len(t, refresher.dates, 1)

	refresher.err = errors.New("db down")
	assert.Error(t, handler(context.Background(), jobs.Job{Type: JobRefreshStudentAttendance, Payload: "2024-05-02"}))
}
