package models

import (
	"errors"
	"fmt"
)

// ErrBaseSeriesMissing is returned when the price anchor series is absent or empty.
var ErrBaseSeriesMissing = errors.New("base series missing")

// ErrSourceNotFound is returned by a loader that has no table for a key.
var ErrSourceNotFound = errors.New("source not found")

// SeriesUnavailableError records a secondary series that failed to load or parse.
type SeriesUnavailableError struct {
	Series string
	Err    error
}

func (e *SeriesUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("series %s unavailable: %v", e.Series, e.Err)
	}
	return fmt.Sprintf("series %s unavailable", e.Series)
}

// Unwrap returns the underlying error.
func (e *SeriesUnavailableError) Unwrap() error { return e.Err }

// ErrColumnMissing is returned when a raw table lacks a declared column.
var ErrColumnMissing = errors.New("column missing")

// ErrEmptySeries is returned when no usable observation survives cleaning.
var ErrEmptySeries = errors.New("no usable observations")
