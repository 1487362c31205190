package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrPath          = errors.New("input path not found")
	ErrNoFiles       = errors.New("no matching files")
	ErrSchema        = errors.New("missing required column")
	ErrEmptyDataset  = errors.New("both datasets are empty")
	ErrNoMatch       = errors.New("week ranges do not overlap")
	ErrValidation    = errors.New("invalid input")
	ErrInvalidRow    = errors.New("invalid row value")
	ErrRunInProgress = errors.New("a reconciliation run is already in progress")
)

// PathError is returned when an input directory does not exist.
type PathError struct {
	Source Source
	Path   string
	Err    error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s path does not exist: %s", e.Source, e.Path)
}

func (e *PathError) Unwrap() error { return e.Err }

func (e *PathError) Is(target error) bool { return target == ErrPath }

// NoFilesError is returned when a directory exists but holds no readable files.
type NoFilesError struct {
	Source     Source
	Path       string
	Extensions []string
}

func (e *NoFilesError) Error() string {
	return fmt.Sprintf("no %s files found in %s path: %s", strings.Join(e.Extensions, "/"), e.Source, e.Path)
}

func (e *NoFilesError) Is(target error) bool { return target == ErrNoFiles }

// SchemaError is returned when a required column is absent after renaming.
type SchemaError struct {
	Source Source
	Column string
	// Header is the source header the column is read from.
	Header string
}

func (e *SchemaError) Error() string {
	if e.Header != "" && e.Header != e.Column {
		return fmt.Sprintf("%s data is missing required column %q (expected header %q)", e.Source, e.Column, e.Header)
	}
	return fmt.Sprintf("%s data is missing required column %q", e.Source, e.Column)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// EmptyDatasetError is returned when neither source has rows left after cleaning.
type EmptyDatasetError struct {
	Weeks *WeekRange
}

func (e *EmptyDatasetError) Error() string {
	if e.Weeks != nil {
		return fmt.Sprintf("both datasets are empty after filtering weeks %s", e.Weeks)
	}
	return "both datasets are empty after cleaning"
}

func (e *EmptyDatasetError) Is(target error) bool { return target == ErrEmptyDataset }

// NoMatchError is returned when the week ranges of both sides never intersect.
// A nil range means that side had no rows.
type NoMatchError struct {
	ProtimeWeeks *WeekRange
	AgencyWeeks  *WeekRange
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no overlapping weeks: protime data covers %s, agency data covers %s",
		describeRange(e.ProtimeWeeks), describeRange(e.AgencyWeeks))
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

func describeRange(r *WeekRange) string {
	if r == nil {
		return "no weeks"
	}
	return "weeks " + r.String()
}

// ValidationError reports a malformed run parameter.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// RowError reports a cell that is present but cannot be coerced.
type RowError struct {
	Source Source
	File   string
	Row    int
	Column string
	Value  string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d (%s): could not parse %s value %q", e.Source, e.Row, e.File, e.Column, e.Value)
}

func (e *RowError) Is(target error) bool { return target == ErrInvalidRow }
