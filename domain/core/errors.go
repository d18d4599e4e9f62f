package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors (fail-fast, raised before any replication runs)
	ErrInvalidSpec        = errors.New("invalid simulation spec")
	ErrUnknownFamily      = errors.New("unknown distribution family")
	ErrUnknownLink        = errors.New("unknown link function")
	ErrUnknownCriterion   = errors.New("unknown criterion")
	ErrUnknownCoefficient = errors.New("coefficient not defined by model formula")

	// Per-replication errors (recovered locally, recorded as tombstones)
	ErrFitFailure = errors.New("model fit failed")
	ErrFitTimeout = fmt.Errorf("%w: timeout", ErrFitFailure)

	// Aggregation errors
	ErrNoSuccessfulReplications = errors.New("no successful replications to aggregate")
	ErrFailureRateExceeded      = errors.New("failure rate exceeded hard-stop threshold")

	// Storage errors
	ErrRunNotFound = errors.New("simulation run not found")
)

// Error constructors with context
func NewInvalidSpecError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidSpec, field, reason)
}

func NewFitFailureError(reason string) error {
	return fmt.Errorf("%w: %s", ErrFitFailure, reason)
}

func NewUnknownCoefficientError(coef string) error {
	return fmt.Errorf("%w: %s", ErrUnknownCoefficient, coef)
}

// Error checking helpers
func IsInvalidSpec(err error) bool {
	return errors.Is(err, ErrInvalidSpec) ||
		errors.Is(err, ErrUnknownFamily) ||
		errors.Is(err, ErrUnknownLink) ||
		errors.Is(err, ErrUnknownCriterion) ||
		errors.Is(err, ErrUnknownCoefficient)
}

func IsFitFailure(err error) bool {
	return errors.Is(err, ErrFitFailure)
}

func IsFitTimeout(err error) bool {
	return errors.Is(err, ErrFitTimeout)
}
