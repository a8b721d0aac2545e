package nutrition

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCatalog is returned when the catalog has no items at all.
	ErrEmptyCatalog = errors.New("no foods available")
	// ErrNoWorkoutData is returned when no active program and no recent workout exist.
	ErrNoWorkoutData = errors.New("no workout data found: log a workout or create a program first")
)

// MinimumCatalogSize is the floor below which a plan cannot be assembled.
const MinimumCatalogSize = 5

// InsufficientCatalogError reports that restriction filtering left too few foods.
type InsufficientCatalogError struct {
	Remaining    int
	Restrictions []string
}

func (e *InsufficientCatalogError) Error() string {
	return fmt.Sprintf("only %d foods match restrictions %v, need at least %d", e.Remaining, e.Restrictions, MinimumCatalogSize)
}

// ProgramDataError wraps a failure to interpret a stored program structure.
type ProgramDataError struct {
	ProgramID string
	Err       error
}

func (e *ProgramDataError) Error() string {
	return fmt.Sprintf("program %s: malformed structure: %v", e.ProgramID, e.Err)
}

func (e *ProgramDataError) Unwrap() error { return e.Err }
