package models

import "time"

// Holiday is a named non-working day.
type Holiday struct {
	ID        string    `db:"id" json:"id"`
	Date      Date      `db:"date" json:"date"`
	Name      string    `db:"name" json:"name"`
	CreatedBy *string   `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CreateHolidayRequest is the payload for adding a holiday.
type CreateHolidayRequest struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name" validate:"required"`
}
