package planner

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every error caused by malformed caller
// input.
var ErrValidation = errors.New("validation failed")

// Validation errors returned by Add and ChangeDuration.
var (
	ErrEmptyTitle        = invalid("title is required")
	ErrInvalidDate       = invalid("invalid date")
	ErrInvalidDateTime   = invalid("invalid date-time")
	ErrInvalidDuration   = invalid("duration must be a positive number of hours")
	ErrInvalidPriority   = invalid("priority must be between 1 and 5")
	ErrInvalidRepeat     = invalid("invalid repeat")
	ErrInvalidDeleteMode = invalid("invalid delete mode")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// IsValidation reports whether err was caused by malformed caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
