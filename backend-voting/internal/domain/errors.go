package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Period errors
	ErrPeriodNotFound      = errors.New("voting period not found")
	ErrPeriodAlreadyExists = errors.New("a voting period already exists for this country and year")
	ErrInvalidTransition   = errors.New("action not allowed in the current state")
	ErrUnknownAction       = errors.New("unknown voting action")

	// Suggestion errors
	ErrSuggestionsClosed = errors.New("suggestions are not open")
	ErrDuplicateDJ       = errors.New("this DJ has already been suggested")
	ErrDJNotFound        = errors.New("DJ is not a suggestion of this period")

	// Vote errors
	ErrVotingClosed       = errors.New("voting is not open")
	ErrAlreadyVoted       = errors.New("you already voted for this DJ")
	ErrVoteLimitReached   = errors.New("vote limit reached for this period")
	ErrRankingNotFound    = errors.New("ranking not found")
	ErrRankingUnpublished = errors.New("ranking has not been published")

	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")
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
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrDJNotFound) ||
		errors.Is(err, ErrRankingNotFound) ||
		errors.Is(err, ErrRankingUnpublished)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownAction)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrPeriodAlreadyExists) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrSuggestionsClosed) ||
		errors.Is(err, ErrDuplicateDJ) ||
		errors.Is(err, ErrVotingClosed) ||
		errors.Is(err, ErrAlreadyVoted) ||
		errors.Is(err, ErrVoteLimitReached)
}

// IsTransientError checks if the error is a retryable backend failure
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
