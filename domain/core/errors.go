package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)
	ErrDatasetMissing = fmt.Errorf("%w: dataset", ErrNotFound)

	// Shape errors
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLengthMismatch  = errors.New("column length does not match dataset")

	// Statistical errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerate       = errors.New("degenerate input")
	ErrNonFinite        = errors.New("non-finite statistic")
)

// NewColumnNotFoundError names the missing column
func NewColumnNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// NewInsufficientDataError explains how much data an operation needed
func NewInsufficientDataError(operation string, need, have int) error {
	return fmt.Errorf("%w: %s needs %d, have %d", ErrInsufficientData, operation, need, have)
}

// IsStatisticalError reports whether err comes from the data rather than a bug
func IsStatisticalError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerate) ||
		errors.Is(err, ErrNonFinite)
}
