package models

// StatCard is one tile of the dashboard summary.
type StatCard struct {
	Title string `json:"title"`
	Value int    `json:"value"`
}

// ChartPoint is a labelled value for chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// GenderCount is the number of students sharing a gender.
type GenderCount struct {
	Gender string `json:"gender" db:"gender"`
	Count  int    `json:"count" db:"count"`
}

// TopAttendant ranks a student by present days in the current month.
type TopAttendant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNo     string `json:"rollNo"`
	Avatar     string `json:"avatar"`
	Percentage int    `json:"percentage"`
	Days       int    `json:"days"`
}

// PresentDays is a raw aggregation row for top attendants.
type PresentDays struct {
	StudentID string `db:"student_id"`
	Name      string `db:"name"`
	RollNo    string `db:"roll_no"`
	Days      int    `db:"days"`
}

// PeriodAverage is an average attendance percentage for a month or year bucket.
type PeriodAverage struct {
	Period  int     `db:"period"`
	Average float64 `db:"average"`
}

// Stats view modes.
const (
	ViewMonthly = "monthly"
	ViewYearly  = "yearly"
	ViewPresent = "present"
	ViewAbsent  = "absent"
)
