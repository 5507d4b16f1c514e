package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound            = errors.New("resource not found")
	ErrGroundTruthNotFound = fmt.Errorf("%w: ground truth", ErrNotFound)
	ErrRunNotFound         = fmt.Errorf("%w: run", ErrNotFound)

	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownKind  = fmt.Errorf("%w: unknown misalignment kind", ErrInvalidInput)

	// ErrMalformedReport aborts scoring of a single run only.
	ErrMalformedReport = errors.New("malformed report")

	// ErrInsufficientSample means "not enough data yet", not a computation failure.
	ErrInsufficientSample = errors.New("insufficient sample")

	// ErrInvalidNumeric aborts the enclosing computation (NaN or infinite input).
	ErrInvalidNumeric = errors.New("invalid numeric input")
)

// Side says which input a malformed item came from
type Side string

const (
	SideReported    Side = "reported"
	SideGroundTruth Side = "ground_truth"
)

// MalformedReportError describes one item that is missing fields required by its kind,
// or carries fields its kind forbids.
type MalformedReportError struct {
	Kind   string
	Side   Side
	Index  int
	Field  string
	Reason string
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed report: %s %s item %d: field %q %s", e.Kind, e.Side, e.Index, e.Field, e.Reason)
}

// Is lets errors.Is match ErrMalformedReport
func (e *MalformedReportError) Is(target error) bool {
	return target == ErrMalformedReport
}

// InsufficientSampleError reports a sample below a method's minimum size
type InsufficientSampleError struct {
	Group string
	Have  int
	Need  int
}

func (e *InsufficientSampleError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("insufficient sample: have %d, need at least %d", e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient sample in group %s: have %d, need at least %d", e.Group, e.Have, e.Need)
}

// Is lets errors.Is match ErrInsufficientSample
func (e *InsufficientSampleError) Is(target error) bool {
	return target == ErrInsufficientSample
}

// NewInsufficientSample builds an InsufficientSampleError
func NewInsufficientSample(group string, have, need int) error {
	return &InsufficientSampleError{Group: group, Have: have, Need: need}
}

// NewInvalidNumericError reports a NaN or infinite value in a named series
func NewInvalidNumericError(series string, index int, value float64) error {
	return fmt.Errorf("%w: %s[%d] = %v", ErrInvalidNumeric, series, index, value)
}

// NewValidationError reports an invalid field on an input record
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

// IsNotFoundError reports whether err is any not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInsufficientSample reports whether err means "not enough data yet"
func IsInsufficientSample(err error) bool {
	return errors.Is(err, ErrInsufficientSample)
}

// IsMalformedReport reports whether err is a per-run malformed input error
func IsMalformedReport(err error) bool {
	return errors.Is(err, ErrMalformedReport)
}
