package errors_test

import (
	"errors"
	"fmt"
	"testing"

	tperrors "github.com/ezoic/tensorpack/pkg/errors"
)

// TestErrorWrappingCompatibility tests Go 1.13+ error wrapping with the
// custom error types.
func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := tperrors.NewNotFittedError("CoupledTensor", "Fit")

	wrappedErr := fmt.Errorf("factorization step failed: %w", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Errorf("errors.Is failed to identify wrapped error")
	}

	var notFittedErr *tperrors.NotFittedError
	if !errors.As(wrappedErr, &notFittedErr) {
		t.Fatalf("errors.As failed to extract NotFittedError")
	}

	if notFittedErr.ModelName != "CoupledTensor" {
		t.Errorf("expected ModelName 'CoupledTensor', got '%s'", notFittedErr.ModelName)
	}
}

func TestDimensionErrorFields(t *testing.T) {
	dimErr := tperrors.NewDimensionError("NewDataset", 8, 7, 0)

	wrappedErr := fmt.Errorf("dataset construction failed: %w", dimErr)

	var dimensionErr *tperrors.DimensionError
	if !errors.As(wrappedErr, &dimensionErr) {
		t.Fatalf("errors.As failed to extract DimensionError")
	}

	if dimensionErr.Expected != 8 || dimensionErr.Got != 7 || dimensionErr.Axis != 0 {
		t.Errorf("unexpected fields: %+v", dimensionErr)
	}
}

func TestDegenerateDataSentinel(t *testing.T) {
	err := tperrors.NewDegenerateDataError("CoupledTensor.Score", "turn")

	if !errors.Is(err, tperrors.ErrDegenerateData) {
		t.Errorf("failed to identify ErrDegenerateData sentinel")
	}

	wrappedErr := fmt.Errorf("scoring failed: %w", err)
	if !errors.Is(wrappedErr, tperrors.ErrDegenerateData) {
		t.Errorf("failed to identify ErrDegenerateData through wrapper")
	}

	var degErr *tperrors.DegenerateDataError
	if !errors.As(wrappedErr, &degErr) {
		t.Fatalf("errors.As failed to extract DegenerateDataError")
	}
	if degErr.Variable != "turn" {
		t.Errorf("expected Variable 'turn', got '%s'", degErr.Variable)
	}
}

func TestNumericalFailureChain(t *testing.T) {
	solverErr := fmt.Errorf("matrix singular or near-singular")
	err := tperrors.NewNumericalFailureError("CoupledTensor.Fit", "month", 3, solverErr)

	if !errors.Is(err, tperrors.ErrNumericalFailure) {
		t.Errorf("failed to identify ErrNumericalFailure sentinel")
	}
	if !errors.Is(err, solverErr) {
		t.Errorf("failed to find solver error in chain")
	}

	var numErr *tperrors.NumericalFailureError
	if !errors.As(err, &numErr) {
		t.Fatalf("errors.As failed to extract NumericalFailureError")
	}
	if numErr.Axis != "month" || numErr.Sweep != 3 {
		t.Errorf("unexpected context: axis=%q sweep=%d", numErr.Axis, numErr.Sweep)
	}
}

// TestCombinedErrorTypes tests mixing custom and standard errors.
func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")

	customErr := tperrors.NewModelError("CoupledTensor.Initialize", "svd failed", stdErr)

	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	if !errors.Is(wrappedErr, stdErr) {
		t.Errorf("failed to find standard error in chain")
	}

	var modelErr *tperrors.ModelError
	if !errors.As(wrappedErr, &modelErr) {
		t.Fatalf("failed to extract ModelError")
	}

	if modelErr.Unwrap() != stdErr {
		t.Errorf("ModelError.Unwrap() didn't return expected error")
	}
}

func TestSentinelErrors(t *testing.T) {
	err := tperrors.NewModelError("Unfold", "empty dataset", tperrors.ErrEmptyData)

	if !errors.Is(err, tperrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData sentinel")
	}

	wrappedErr := fmt.Errorf("preprocessing failed: %w", err)

	if !errors.Is(wrappedErr, tperrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData through wrapper")
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer tperrors.Recover(&err, "TestOp")
		panic("index out of range")
	}

	err := fn()
	if err == nil {
		t.Fatalf("expected error from recovered panic")
	}
}
