package models

import (
	"database/sql/driver"
	"time"
)

// StudentStatus tracks a student's enrollment lifecycle.
type StudentStatus string

const (
	StudentActive    StudentStatus = "Active"
	StudentCompleted StudentStatus = "Completed"
	StudentDropped   StudentStatus = "Dropped"
	StudentSuspended StudentStatus = "Suspended"
)

// PersonalInfo is stored as JSONB in students.personal_info.
type PersonalInfo struct {
	AadharCard    string `json:"aadharCard,omitempty"`
	DOB           *Date  `json:"dob,omitempty"`
	Gender        string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	BloodGroup    string `json:"bloodGroup,omitempty"`
	CasteCategory string `json:"casteCategory,omitempty"`
}

// Value implements driver.Valuer.
func (p PersonalInfo) Value() (driver.Value, error) { return jsonValue(p) }

// Scan implements sql.Scanner.
func (p *PersonalInfo) Scan(value interface{}) error { return jsonScan(value, p) }

// Address is the guardian's postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// GuardianDetails is stored as JSONB in students.guardian_details.
type GuardianDetails struct {
	FatherName     string  `json:"fatherName,omitempty"`
	MotherName     string  `json:"motherName,omitempty"`
	PrimaryPhone   string  `json:"primaryPhone" validate:"required"`
	SecondaryPhone string  `json:"secondaryPhone,omitempty"`
	Address        Address `json:"address"`
}

// Value implements driver.Valuer.
func (g GuardianDetails) Value() (driver.Value, error) { return jsonValue(g) }

// Scan implements sql.Scanner.
func (g *GuardianDetails) Scan(value interface{}) error { return jsonScan(value, g) }

// Documents holds links to uploaded student documents.
type Documents struct {
	AadharFront       string `json:"aadharFront,omitempty"`
	AadharBack        string `json:"aadharBack,omitempty"`
	PreviousMarksheet string `json:"previousMarksheet,omitempty"`
}

// Value implements driver.Valuer.
func (d Documents) Value() (driver.Value, error) { return jsonValue(d) }

// Scan implements sql.Scanner.
func (d *Documents) Scan(value interface{}) error { return jsonScan(value, d) }

// Student represents a learner registered in the institution.
type Student struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Email           string          `db:"email" json:"email"`
	RollID          int             `db:"roll_id" json:"rollId"`
	Image           string          `db:"image" json:"image"`
	PersonalInfo    PersonalInfo    `db:"personal_info" json:"personalInfo"`
	GuardianDetails GuardianDetails `db:"guardian_details" json:"guardianDetails"`
	Course          string          `db:"course" json:"course"`
	CourseStartDate *Date           `db:"course_start_date" json:"courseStartDate,omitempty"`
	CourseEndDate   *Date           `db:"course_end_date" json:"courseEndDate,omitempty"`
	Status          StudentStatus   `db:"status" json:"status"`
	Marks           *float64        `db:"marks" json:"marks,omitempty"`
	Grade           string          `db:"grade" json:"grade"`
	Attendance      string          `db:"attendance" json:"attendance"`
	CertificateID   string          `db:"certificate_id" json:"certificateId,omitempty"`
	Documents       Documents       `db:"documents" json:"documents"`
	RegistrarID     *string         `db:"registrar_id" json:"registrarId,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search string
	Status StudentStatus
	Course string
}

// StudentRequest is the payload for registering or editing a student.
type StudentRequest struct {
	ID              string          `json:"id"`
	LegacyID        string          `json:"_id"`
	Name            string          `json:"name" validate:"required"`
	Email           string          `json:"email" validate:"required,email"`
	RollID          int             `json:"rollId" validate:"required,gt=0"`
	Image           string          `json:"image"`
	PersonalInfo    PersonalInfo    `json:"personalInfo"`
	GuardianDetails GuardianDetails `json:"guardianDetails"`
	Course          string          `json:"course" validate:"required"`
	CourseStartDate *Date           `json:"courseStartDate"`
	CourseEndDate   *Date           `json:"courseEndDate"`
	Status          StudentStatus   `json:"status" validate:"omitempty,oneof=Active Completed Dropped Suspended"`
	Marks           *float64        `json:"marks" validate:"omitempty,gte=0"`
	Grade           string          `json:"grade"`
	Documents       Documents       `json:"documents"`
}

// TargetID returns the student id carried by an edit payload.
func (r StudentRequest) TargetID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.LegacyID
}
