package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionConflict is matched by every *ConflictError.
	ErrVersionConflict = errors.New("version conflict")

	// ErrValidation wraps every rejected payload.
	ErrValidation = errors.New("validation failed")

	// ErrFallbackCategory is returned when deleting the fallback category.
	ErrFallbackCategory = errors.New("the fallback category cannot be deleted")
)

// ConflictError is returned when a write supplied an expected version that
// no longer matches the stored one. Remote is the stored document.
type ConflictError struct {
	ExpectedVersion int64
	CurrentVersion  int64
	Remote          *Document
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current %d", e.ExpectedVersion, e.CurrentVersion)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// ValidationError carries the field level messages of a rejected payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Problems[0])
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
