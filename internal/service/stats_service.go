package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

const topAttendantsLimit = 5

var weekdayLabels = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type statsAttendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Attendance, error)
	MonthlyAverages(ctx context.Context, from, to models.Date) ([]models.PeriodAverage, error)
	YearlyAverages(ctx context.Context) ([]models.PeriodAverage, error)
	CountDays(ctx context.Context, from, to models.Date) (int, error)
	TopPresent(ctx context.Context, from, to models.Date, limit int) ([]models.PresentDays, error)
}

type statsStudentRepository interface {
	Count(ctx context.Context) (int, error)
	GenderCounts(ctx context.Context) ([]models.GenderCount, error)
	ImagesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

// StatsServiceParams groups constructor dependencies.
type StatsServiceParams struct {
	Attendance statsAttendanceRepository
	Students   statsStudentRepository
	Cache      *CacheService
	Location   *time.Location
	Logger     *zap.Logger
}

// StatsService derives dashboard aggregations from stored attendance days.
type StatsService struct {
	attendance statsAttendanceRepository
	students   statsStudentRepository
	cache      *CacheService
	loc        *time.Location
	logger     *zap.Logger
	now        func() time.Time
}

// NewStatsService constructs a StatsService. A nil location means UTC.
func NewStatsService(params StatsServiceParams) *StatsService {
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		attendance: params.Attendance,
		students:   params.Students,
		cache:      params.Cache,
		loc:        loc,
		logger:     logger,
		now:        time.Now,
	}
}

// today returns the current calendar date in the attendance time zone.
func (s *StatsService) today() models.Date {
	return models.NewDate(s.now().In(s.loc))
}

// DailyStats returns today's summary cards, falling back to the student count with zeroed tallies.
func (s *StatsService) DailyStats(ctx context.Context) ([]models.StatCard, error) {
	today := s.today()
	return cached(ctx, s.cache, "stats:daily:"+today.String(), func(ctx context.Context) ([]models.StatCard, error) {
		att, err := s.attendance.FindByID(ctx, today.String())
		switch {
		case err == nil:
			return statCards(att.Summary.TotalStudents, att.Summary.PresentCount, att.Summary.AbsentCount, att.Summary.LeaveCount), nil
		case errors.Is(err, sql.ErrNoRows):
			total, err := s.students.Count(ctx)
			if err != nil {
				return nil, internalError(err, "failed to count students")
			}
			return statCards(total, 0, 0, 0), nil
		default:
			return nil, internalError(err, "failed to load today's attendance")
		}
	})
}

func statCards(total, present, absent, leave int) []models.StatCard {
	return []models.StatCard{
		{Title: "Total Students", Value: total},
		{Title: "Total Present", Value: present},
		{Title: "Total Absent", Value: absent},
		{Title: "Total Leave", Value: leave},
	}
}

// AttendanceOverview averages attendance per month of the current year or per year of history.
func (s *StatsService) AttendanceOverview(ctx context.Context, viewMode string) ([]models.ChartPoint, error) {
	switch viewMode {
	case models.ViewMonthly:
		year := s.today().Year()
		key := fmt.Sprintf("stats:overview:%s:%d", viewMode, year)
		return cached(ctx, s.cache, key, func(ctx context.Context) ([]models.ChartPoint, error) {
			return s.monthlyOverview(ctx, year)
		})
	case models.ViewYearly:
		return cached(ctx, s.cache, "stats:overview:"+viewMode, s.yearlyOverview)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid viewMode. Use 'monthly' or 'yearly'.")
	}
}

func (s *StatsService) monthlyOverview(ctx context.Context, year int) ([]models.ChartPoint, error) {
	from := models.NewDate(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
	to := models.NewDate(time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC))
	averages, err := s.attendance.MonthlyAverages(ctx, from, to)
	if err != nil {
		return nil, internalError(err, "failed to aggregate monthly attendance")
	}

	byMonth := make(map[int]float64, len(averages))
	for _, avg := range averages {
		byMonth[avg.Period] = avg.Average
	}
	points := make([]models.ChartPoint, 0, 12)
	for m := time.January; m <= time.December; m++ {
		points = append(points, models.ChartPoint{
			Label: m.String()[:3],
			Value: math.Round(byMonth[int(m)]),
		})
	}
	return points, nil
}

func (s *StatsService) yearlyOverview(ctx context.Context) ([]models.ChartPoint, error) {
	averages, err := s.attendance.YearlyAverages(ctx)
	if err != nil {
		return nil, internalError(err, "failed to aggregate yearly attendance")
	}
	points := make([]models.ChartPoint, 0, len(averages))
	for _, avg := range averages {
		points = append(points, models.ChartPoint{
			Label: strconv.Itoa(avg.Period),
			Value: math.Round(avg.Average),
		})
	}
	return points, nil
}

// GenderStats counts students per gender.
func (s *StatsService) GenderStats(ctx context.Context) ([]models.GenderCount, error) {
	return cached(ctx, s.cache, "stats:gender:all", func(ctx context.Context) ([]models.GenderCount, error) {
		counts, err := s.students.GenderCounts(ctx)
		if err != nil {
			return nil, internalError(err, "failed to aggregate gender stats")
		}
		return counts, nil
	})
}

// TopAttendants ranks the current month's students by present days.
func (s *StatsService) TopAttendants(ctx context.Context) ([]models.TopAttendant, error) {
	today := s.today()
	from := models.NewDate(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC))
	to := models.NewDate(from.AddDate(0, 1, 0))
	key := "stats:top:" + from.Format("2006-01")
	return cached(ctx, s.cache, key, func(ctx context.Context) ([]models.TopAttendant, error) {
		schoolDays, err := s.attendance.CountDays(ctx, from, to)
		if err != nil {
			return nil, internalError(err, "failed to count school days")
		}
		if schoolDays == 0 {
			return []models.TopAttendant{}, nil
		}

		rows, err := s.attendance.TopPresent(ctx, from, to, topAttendantsLimit)
		if err != nil {
			return nil, internalError(err, "failed to rank attendants")
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.StudentID)
		}
		images, err := s.students.ImagesByIDs(ctx, ids)
		if err != nil {
			s.logger.Warn("failed to load attendant avatars", zap.Error(err))
			images = nil
		}

		result := make([]models.TopAttendant, 0, len(rows))
		for _, row := range rows {
			result = append(result, models.TopAttendant{
				ID:         row.StudentID,
				Name:       row.Name,
				RollNo:     row.RollNo,
				Avatar:     images[row.StudentID],
				Percentage: int(math.Round(float64(row.Days) / float64(schoolDays) * 100)),
				Days:       row.Days,
			})
		}
		return result, nil
	})
}

// WeekBounds returns the Monday and Saturday of the week containing day.
// Weekdays count from Sunday as zero, so a Sunday resolves to the following week.
func WeekBounds(day models.Date) (models.Date, models.Date) {
	monday := models.NewDate(day.AddDate(0, 0, 1-int(day.Weekday())))
	return monday, models.NewDate(monday.AddDate(0, 0, 5))
}

// WeeklyAttendance reports the present or absent percentage for each day Monday to Saturday.
func (s *StatsService) WeeklyAttendance(ctx context.Context, viewMode string) ([]models.ChartPoint, error) {
	if viewMode != models.ViewPresent && viewMode != models.ViewAbsent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid viewMode. Use 'present' or 'absent'.")
	}
	monday, _ := WeekBounds(s.today())
	key := fmt.Sprintf("stats:weekly:%s:%s", viewMode, monday.String())
	return cached(ctx, s.cache, key, func(ctx context.Context) ([]models.ChartPoint, error) {
		ids := make([]string, len(weekdayLabels))
		for i := range weekdayLabels {
			ids[i] = models.NewDate(monday.AddDate(0, 0, i)).String()
		}
		days, err := s.attendance.ListByIDs(ctx, ids)
		if err != nil {
			return nil, internalError(err, "failed to load weekly attendance")
		}
		byID := make(map[string]models.AttendanceSummary, len(days))
		for _, day := range days {
			byID[day.ID] = day.Summary
		}

		points := make([]models.ChartPoint, 0, len(weekdayLabels))
		for i, label := range weekdayLabels {
			point := models.ChartPoint{Label: label}
			if summary, ok := byID[ids[i]]; ok {
				if viewMode == models.ViewPresent {
					point.Value = summary.AttendancePercentage
				} else {
					point.Value = models.Percentage(summary.AbsentCount, summary.TotalStudents)
				}
			}
			points = append(points, point)
		}
		return points, nil
	})
}
