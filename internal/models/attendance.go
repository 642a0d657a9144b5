package models

import (
	"database/sql/driver"
	"math"
	"time"
)

// AttendanceStatus is the per-student mark for a day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLeave   AttendanceStatus = "leave"
)

// Valid reports whether the status is one of present, absent or leave.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave:
		return true
	}
	return false
}

// AttendanceRecord is one student's entry within a day's attendance.
type AttendanceRecord struct {
	StudentID string           `json:"studentId" validate:"required"`
	Name      string           `json:"name" validate:"required"`
	RollNo    FlexibleString   `json:"rollNo" validate:"required"`
	Status    AttendanceStatus `json:"status" validate:"required,attendance_status"`
}

// AttendanceRecords is the ordered record list persisted as JSONB.
type AttendanceRecords []AttendanceRecord

// Value implements driver.Valuer.
func (r AttendanceRecords) Value() (driver.Value, error) {
	if r == nil {
		r = AttendanceRecords{}
	}
	return jsonValue(r)
}

// Scan implements sql.Scanner.
func (r *AttendanceRecords) Scan(value interface{}) error { return jsonScan(value, r) }

// AttendanceSummary is computed once when the day is recorded.
type AttendanceSummary struct {
	TotalStudents        int     `db:"total_students" json:"totalStudents"`
	PresentCount         int     `db:"present_count" json:"presentCount"`
	AbsentCount          int     `db:"absent_count" json:"absentCount"`
	LeaveCount           int     `db:"leave_count" json:"leaveCount"`
	AttendancePercentage float64 `db:"attendance_percentage" json:"attendancePercentage"`
}

// Attendance is the single record of a calendar day, keyed by its YYYY-MM-DD string.
type Attendance struct {
	ID        string            `json:"id"`
	Date      Date              `json:"date"`
	Attendant string            `json:"attendant"`
	Records   AttendanceRecords `json:"records"`
	Summary   AttendanceSummary `json:"summary"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// MarkAttendanceRequest is the payload of a daily attendance submission.
type MarkAttendanceRequest struct {
	Date    string             `json:"date" validate:"required"`
	Records []AttendanceRecord `json:"records" validate:"unique=StudentID,dive"`
}

// Summarize counts statuses and derives the attendance percentage.
func Summarize(records []AttendanceRecord) AttendanceSummary {
	summary := AttendanceSummary{TotalStudents: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			summary.PresentCount++
		case StatusAbsent:
			summary.AbsentCount++
		case StatusLeave:
			summary.LeaveCount++
		}
	}
	summary.AttendancePercentage = Percentage(summary.PresentCount, summary.TotalStudents)
	return summary
}

// Percentage returns part/total*100 rounded to two decimals, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
