package entity

import (
	"errors"
	"strings"
)

var (
	// ErrVisitNotFound is returned when no visit record has the requested id
	ErrVisitNotFound = errors.New("visit not found")

	// ErrInvalidStatusTransition is returned when a status change would break the visit lifecycle
	ErrInvalidStatusTransition = errors.New("invalid visit status transition")

	// ErrStatusConflict is returned when a record changed status between read and write
	ErrStatusConflict = errors.New("visit status changed concurrently")

	// ErrConfiguration marks an absent or malformed security policy
	ErrConfiguration = errors.New("invalid security configuration")
)

// ValidationError lists visitor fields that were missing or malformed
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid or missing visitor fields: " + strings.Join(e.Fields, ", ")
}
