package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Catalog errors
	ErrProductNotFound      = errors.New("product not found")
	ErrVariantNotFound      = errors.New("product variant not found")
	ErrProductAlreadyExists = errors.New("product with this slug already exists")
	ErrProductInactive      = errors.New("product is not available for sale")

	// Order errors
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrConcurrentUpdate  = errors.New("order was modified by another request")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Validation errors
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrInvalidStatus           = errors.New("unknown status")
	ErrShippingDetailsRequired = errors.New("tracking number and expected delivery date are required to ship")
	ErrEmptyOrder              = errors.New("order has no items")
	ErrCurrencyMismatch        = errors.New("all items must be priced in the same currency")
)

// InsufficientStockError names the item that could not be reserved
type InsufficientStockError struct {
	ProductID string
	VariantID string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantID != "" {
		return fmt.Sprintf("insufficient stock for product %s variant %s (requested %d)", e.ProductID, e.VariantID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %s (requested %d)", e.ProductID, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

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
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrVariantNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrShippingDetailsRequired) ||
		errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrCurrencyMismatch)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrProductAlreadyExists) ||
		errors.Is(err, ErrProductInactive) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConcurrentUpdate) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsTransientError checks if the error is a retryable backend failure
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
