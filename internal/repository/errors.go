package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// UniqueViolation reports whether err is a Postgres unique violation and returns the violated constraint.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
