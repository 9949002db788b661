package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrUserNotFound    = fmt.Errorf("user: %w", ErrNotFound)
	ErrCourseNotFound  = fmt.Errorf("course: %w", ErrNotFound)
	ErrIntentNotFound  = fmt.Errorf("payment intent: %w", ErrNotFound)
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("too many requests")

	// Payment lifecycle
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrInvalidTransition = errors.New("payment intent already settled")
	ErrAmountMismatch    = errors.New("callback amount does not match intent")
	ErrEntitlement       = errors.New("entitlement grant failed")

	// Storage
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid exec context")
)

// EntitlementError reports a fulfilment failure for a payment that already settled as completed.
type EntitlementError struct {
	IntentID   string
	PayerID    string
	PackageRef string
	Err        error
}

func (e *EntitlementError) Error() string {
	return fmt.Sprintf("entitlement for intent %s (payer=%s package=%s): %v", e.IntentID, e.PayerID, e.PackageRef, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *EntitlementError) Unwrap() []error { return []error{ErrEntitlement, e.Err} }

// Validationf wraps ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
