package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectory is returned when the configured forecast root does not exist.
	ErrDirectory = errors.New("Location of ADHydro RAPID output files faulty. Please check settings.") //nolint:stylecheck,revive
	// ErrDatesInput is returned when the watershed or subbasin name is missing.
	ErrDatesInput = errors.New("AJAX request input faulty")
	// ErrHydrographInput is returned when a hydrograph parameter is missing.
	ErrHydrographInput = errors.New("ADHydro AJAX request input faulty.") //nolint:stylecheck,revive
	// ErrInvalidFile is returned when a forecast file lacks a required variable or cannot be read.
	ErrInvalidFile = errors.New("Invalid ADHydro forecast file") //nolint:stylecheck,revive
	// ErrForecastNotFound matches every NotFoundError.
	ErrForecastNotFound = errors.New("forecast not found")
	// ErrReachNotFound matches every ReachNotFoundError.
	ErrReachNotFound = errors.New("reach not found")
)

// NotFoundError is returned when no forecast file exists for a watershed and subbasin.
type NotFoundError struct {
	Watershed string
	Subbasin  string
	// Recent is set when the folder exists but holds no forecast file.
	Recent bool
}

func (e *NotFoundError) Error() string {
	if e.Recent {
		return fmt.Sprintf("Recent ADHydro forecasts for %s (%s) not found.", e.Watershed, e.Subbasin)
	}

	return fmt.Sprintf("ADHydro forecast for %s (%s) not found.", e.Watershed, e.Subbasin)
}

// Is matches ErrForecastNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrForecastNotFound //nolint:errorlint
}

// ReachNotFoundError is returned when a reach id does not resolve to an index.
type ReachNotFoundError struct {
	ReachID string
}

func (e *ReachNotFoundError) Error() string {
	return fmt.Sprintf("ADHydro reach with id: %s not found.", e.ReachID)
}

// Is matches ErrReachNotFound.
func (e *ReachNotFoundError) Is(target error) bool {
	return target == ErrReachNotFound //nolint:errorlint
}
