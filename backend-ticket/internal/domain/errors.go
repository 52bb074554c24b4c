package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Event errors
	ErrEventNotFound      = errors.New("event not found")
	ErrEventAlreadyExists = errors.New("event with this slug already exists")
	ErrInvalidEventStatus = errors.New("invalid event status transition")
	ErrEventNotEditable   = errors.New("event can no longer be edited")

	// Validation errors
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidEventDates = errors.New("invalid event dates")
	ErrInvalidLayout     = errors.New("invalid zones or sales phases")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and the purchase limit")
	ErrNoPricing         = errors.New("event has no pricing")

	// Sale errors
	ErrEventNotOnSale           = errors.New("event is not on sale")
	ErrPhaseNotActive           = errors.New("sales phase is not active")
	ErrPricingNotFound          = errors.New("pricing not found for phase and zone")
	ErrInsufficientAvailability = errors.New("not enough tickets available")
)

// TransientError wraps a backend failure the caller may retry
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err unless it is nil
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrPricingNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidEventDates) ||
		errors.Is(err, ErrInvalidLayout) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrNoPricing)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEventAlreadyExists) ||
		errors.Is(err, ErrInvalidEventStatus) ||
		errors.Is(err, ErrEventNotEditable) ||
		errors.Is(err, ErrEventNotOnSale) ||
		errors.Is(err, ErrPhaseNotActive) ||
		errors.Is(err, ErrInsufficientAvailability)
}

// IsTransientError checks if the error is a retryable backend failure
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
