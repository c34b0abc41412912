// Package errors provides the typed error taxonomy used across tensorpack.
//
// Every failure surfaced by the library is one of a small set of typed
// errors, all compatible with the standard errors.Is / errors.As chain
// traversal and carrying enough context (operation, axis or variable name,
// sweep index) to reproduce the failure:
//
//   - ValueError: an invalid argument (unknown initialization method,
//     non-positive rank, unknown axis or variable name)
//   - DimensionError: a shape mismatch between an array and its declared axes
//   - NotFittedError: an operation that requires an initialized or fitted
//     model was called too early
//   - DegenerateDataError: a score requested for a variable with zero finite
//     entries (the R2X denominator would be zero)
//   - NumericalFailureError: a dense linear-algebra routine failed to
//     converge; wraps the underlying solver error
//
// Errors are built on github.com/cockroachdb/errors so wrapped chains keep
// stack traces and survive redaction-aware formatting with %+v.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	// ErrEmptyData indicates an empty dataset, variable, or matrix.
	ErrEmptyData = errors.New("empty data")

	// ErrSingularMatrix indicates a matrix that cannot be factorized or inverted.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrNotImplemented indicates a requested feature is not implemented.
	ErrNotImplemented = errors.New("not implemented")

	// ErrDegenerateData indicates data with no finite entries.
	ErrDegenerateData = errors.New("degenerate data")

	// ErrNumericalFailure indicates a non-convergent numerical routine.
	ErrNumericalFailure = errors.New("numerical failure")
)

// ValueError represents an invalid argument value.
type ValueError struct {
	Op      string // Operation that rejected the value
	Message string // Description of the violation
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("tensorpack: %s: %s", e.Op, e.Message)
}

// DimensionError represents a mismatch between an expected and an actual
// dimension length. Axis is the index of the offending dimension.
type DimensionError struct {
	Op       string // Operation that detected the mismatch
	Expected int    // Expected length
	Got      int    // Actual length
	Axis     int    // Dimension index where the mismatch occurred
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("tensorpack: %s: dimension mismatch at axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// NotFittedError indicates a method that requires prior initialization or
// fitting was called on a model that has had neither.
type NotFittedError struct {
	ModelName string // Model the method was called on
	Method    string // Method that was called
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("tensorpack: %s is not initialized; call Initialize before %s",
		e.ModelName, e.Method)
}

// DegenerateDataError indicates a variable whose entries are all non-finite,
// making the requested statistic undefined.
type DegenerateDataError struct {
	Op       string // Operation that required finite data
	Variable string // Offending variable name
}

// NewDegenerateDataError creates a DegenerateDataError for a variable.
func NewDegenerateDataError(op, variable string) *DegenerateDataError {
	return &DegenerateDataError{Op: op, Variable: variable}
}

func (e *DegenerateDataError) Error() string {
	return fmt.Sprintf("tensorpack: %s: variable %q has no finite entries", e.Op, e.Variable)
}

// Is reports that a DegenerateDataError matches the ErrDegenerateData sentinel.
func (e *DegenerateDataError) Is(target error) bool {
	return target == ErrDegenerateData
}

// NumericalFailureError indicates a dense linear-algebra routine failed.
// It records where in the alternating sweep the failure happened.
type NumericalFailureError struct {
	Op    string // Operation being performed
	Axis  string // Axis whose subproblem failed
	Sweep int    // Zero-based sweep index
	Err   error  // Underlying solver error
}

// NewNumericalFailureError wraps a solver error with sweep context.
func NewNumericalFailureError(op, axis string, sweep int, err error) *NumericalFailureError {
	return &NumericalFailureError{Op: op, Axis: axis, Sweep: sweep, Err: err}
}

func (e *NumericalFailureError) Error() string {
	return fmt.Sprintf("tensorpack: %s: solve failed for axis %q in sweep %d: %v",
		e.Op, e.Axis, e.Sweep, e.Err)
}

// Unwrap returns the underlying solver error.
func (e *NumericalFailureError) Unwrap() error { return e.Err }

// Is reports that a NumericalFailureError matches the ErrNumericalFailure sentinel.
func (e *NumericalFailureError) Is(target error) bool {
	return target == ErrNumericalFailure
}

// ModelError wraps a lower-level cause with model operation context.
type ModelError struct {
	Op      string // Operation that failed
	Message string // Description of the failure
	Err     error  // Underlying cause, may be a sentinel
}

// NewModelError creates a ModelError wrapping cause.
func NewModelError(op, message string, cause error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: cause}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tensorpack: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("tensorpack: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ModelError) Unwrap() error { return e.Err }

// Newf creates a new error with a formatted message and a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// Wrap annotates err with a message, preserving the chain. Returns nil if
// err is nil.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message, preserving the chain.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Recover converts a panic into an error assigned to errp. Intended for use
// as a deferred guard around code that calls into numerical routines:
//
//	func (c *CoupledTensor) Fit(...) (err error) {
//		defer errors.Recover(&err, "CoupledTensor.Fit")
//		...
//	}
func Recover(errp *error, op string) {
	if r := recover(); r != nil {
		*errp = errors.Newf("tensorpack: %s: panic: %v", op, r)
	}
}
