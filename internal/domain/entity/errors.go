package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates that a caller has exceeded its admission
	// limit. It is the only condition surfaced to callers as a rejection;
	// all other failures degrade into a lower-confidence result.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap allows errors.Is(err, ErrInvalidInput) to match validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
