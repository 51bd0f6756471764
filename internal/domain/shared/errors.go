// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Infrastructure errors
	ErrStorage            = errors.New("storage error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "bonus", "leaderboard", "counter"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// ValidationError builds a validation failure for the given domain.
// The message is what the API returns to the caller, so keep it human.
func ValidationError(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrValidation, message)
}

// WrapStorageError passes domain errors through unchanged and wraps
// everything else (driver, network) as an opaque storage failure.
func WrapStorageError(domain, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return WrapError(domain, op, ErrStorage, "storage failure", err)
}

// Bonus domain errors
var (
	ErrBonusNotFound = NewDomainError("bonus", "Find", ErrNotFound, "bonus not found")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrMissingFields       = NewDomainError("leaderboard", "Validate", ErrValidation, "Missing required fields")
	ErrInvalidPrizeTable   = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid prize table")
	ErrInvalidDuration     = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "duration must be between 1 and 3650 days")
)

// Counter domain errors
var (
	ErrCounterNotFound  = NewDomainError("counter", "Find", ErrNotFound, "counter not found")
	ErrInvalidBumpRange = NewDomainError("counter", "Bump", ErrValueOutOfRange, "invalid bump range")
)

// Admin domain errors
var (
	ErrUserNotFound       = NewDomainError("admin", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("admin", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidCredentials = NewDomainError("admin", "Login", ErrUnauthorized, "invalid email or password")
	ErrSessionNotFound    = NewDomainError("admin", "FindSession", ErrUnauthorized, "session not found or expired")
	ErrInvalidEmail       = NewDomainError("admin", "Validate", ErrInvalidFormat, "invalid email")
	ErrPasswordTooShort   = NewDomainError("admin", "Validate", ErrValueOutOfRange, "password must be at least 6 characters")
	ErrInvalidRole        = NewDomainError("admin", "Validate", ErrInvalidInput, "role must be admin or superadmin")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// Message extracts the human-readable part of a domain error.
// Non-domain errors yield fallback.
func Message(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
