package cmtf

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tensorpack/pkg/errors"
	"github.com/ezoic/tensorpack/pkg/log"
)

// Fit defaults.
const (
	defaultTol     = 1e-6
	defaultMaxIter = 50
)

// ProgressSink receives per-sweep convergence updates from Fit. Sweep is
// called once after each full pass over the axes with the 1-based sweep
// number, the global R2X, and the improvement over the previous sweep.
// Implementations must not mutate the factorization; the default sink
// discards everything.
type ProgressSink interface {
	Sweep(sweep int, r2x, delta float64)
}

// ProgressFunc adapts a plain function to the ProgressSink interface.
type ProgressFunc func(sweep int, r2x, delta float64)

// Sweep implements ProgressSink.
func (f ProgressFunc) Sweep(sweep int, r2x, delta float64) {
	f(sweep, r2x, delta)
}

type noopSink struct{}

func (noopSink) Sweep(int, float64, float64) {}

type fitConfig struct {
	tol      float64
	maxIter  int
	progress ProgressSink
}

// FitOption configures a Fit run.
type FitOption func(*fitConfig)

// WithTol sets the convergence tolerance on the per-sweep R2X improvement.
func WithTol(tol float64) FitOption {
	return func(cfg *fitConfig) {
		cfg.tol = tol
	}
}

// WithMaxIter sets the sweep cap.
func WithMaxIter(maxIter int) FitOption {
	return func(cfg *fitConfig) {
		cfg.maxIter = maxIter
	}
}

// WithProgress sets the per-sweep progress sink.
func WithProgress(sink ProgressSink) FitOption {
	return func(cfg *fitConfig) {
		cfg.progress = sink
	}
}

// FitResult summarizes a completed Fit run.
type FitResult struct {
	// Status is StatusConverged or StatusIterationLimit.
	Status Status

	// Sweeps is the number of full sweeps performed.
	Sweeps int

	// R2X is the global score after the final sweep.
	R2X float64
}

// Fit runs alternating least squares until the global R2X improvement per
// sweep falls below the tolerance or the sweep cap is reached.
//
// Each sweep visits the axes in dataset declaration order. For an axis the
// update solves
//
//	min ‖KhatriRao(axis) · F(axis)ᵀ − Unfold(axis)ᵀ‖
//
// in the least-squares sense and writes the new factor matrix back
// immediately, so later axes in
// the same sweep already see the update (a Gauss-Seidel sweep). Axes not
// used by any variable are skipped.
//
// Initialize must have been called; both terminal states leave the factor
// state intact and scoreable, and a further Fit call resumes from it.
func (c *CoupledTensor) Fit(opts ...FitOption) (result *FitResult, err error) {
	defer errors.Recover(&err, "CoupledTensor.Fit")

	if c.status == StatusUninitialized {
		return nil, errors.NewNotFittedError("CoupledTensor", "Fit")
	}

	cfg := fitConfig{
		tol:      defaultTol,
		maxIter:  defaultMaxIter,
		progress: noopSink{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxIter < 1 {
		return nil, errors.NewValueError("CoupledTensor.Fit", "maxiter must be positive")
	}
	if cfg.tol < 0 {
		return nil, errors.NewValueError("CoupledTensor.Fit", "tol must be non-negative")
	}

	var sweepAxes []string
	for _, axis := range c.data.Axes() {
		if _, ok := c.unfolded[axis]; ok {
			sweepAxes = append(sweepAxes, axis)
		}
	}

	startTime := time.Now()
	c.logger.Info("ALS started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		"tol", cfg.tol,
		"maxiter", cfg.maxIter,
	)

	status := StatusIterationLimit
	prev := math.Inf(-1)
	sweeps := 0
	var r2x float64

	for i := 0; i < cfg.maxIter; i++ {
		for _, axis := range sweepAxes {
			if err := c.updateFactor(axis, i); err != nil {
				return nil, err
			}
		}
		sweeps = i + 1

		r2x, err = c.ScoreAll()
		if err != nil {
			return nil, err
		}
		delta := r2x - prev

		cfg.progress.Sweep(sweeps, r2x, delta)
		c.logger.Debug("Sweep completed",
			log.SweepKey, sweeps,
			log.R2XKey, r2x,
			log.DeltaKey, delta,
		)

		if math.Abs(delta) < cfg.tol {
			status = StatusConverged
			break
		}
		prev = r2x
	}

	c.status = status
	c.logger.Info("ALS finished",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.SweepKey, sweeps,
		log.R2XKey, r2x,
		"status", status.String(),
	)

	return &FitResult{Status: status, Sweeps: sweeps, R2X: r2x}, nil
}

// updateFactor solves the least-squares subproblem for one axis and writes
// the result into the factor state.
func (c *CoupledTensor) updateFactor(axis string, sweep int) error {
	kr, err := c.KhatriRao(axis)
	if err != nil {
		return err
	}
	unf := c.unfolded[axis]

	// kr is (M × rank), unfᵀ is (M × axis length); solve for the
	// (rank × axis length) transposed factor.
	var ft mat.Dense
	if err := lstsqTo(&ft, kr, unf.T()); err != nil {
		return errors.NewNumericalFailureError("CoupledTensor.Fit", axis, sweep, err)
	}

	factor := c.factors[axis]
	n, _ := factor.Dims()
	for i := 0; i < n; i++ {
		for r := 0; r < c.rank; r++ {
			factor.Set(i, r, ft.At(r, i))
		}
	}
	return nil
}

// lstsqTo computes the minimum-norm solution of min ||a*x - b|| via the
// truncated SVD pseudo-inverse. The design matrix can be rank deficient
// (the all-ones initialization makes every Khatri-Rao column identical);
// singular values at or below the tolerance are treated as zero.
func lstsqTo(dst *mat.Dense, a, b mat.Matrix) error {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return errors.ErrNumericalFailure
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	// Singular values below the conditioning cutoff are treated as zero,
	// the same rcond truncation LAPACK gelsd applies.
	ar, ac := a.Dims()
	n := ar
	if ac > n {
		n = ac
	}
	tol := float64(n) * eps * s[0]

	var utb mat.Dense
	utb.Mul(u.T(), b)
	raw := utb.RawMatrix()
	for i, sv := range s {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		if sv > tol {
			for j := range row {
				row[j] /= sv
			}
		} else {
			for j := range row {
				row[j] = 0
			}
		}
	}

	dst.Mul(&v, &utb)
	return nil
}

const eps = 2.220446049250313e-16
