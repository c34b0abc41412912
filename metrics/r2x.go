// Package metrics provides evaluation metrics for tensor factorizations.
//
// The central metric is R2X, the fraction of variance in the observed data
// explained by a reconstruction:
//
//	R2X = 1 - ‖recon - observed‖² / ‖observed‖²
//
// using the Frobenius norm over all entries. Non-finite (NaN or Inf)
// entries in the observed tensor are treated as missing: they are excluded
// from both the error and the norm by zeroing the observed entry and
// masking the reconstruction at the same position.
//
// R2XParts exposes the numerator and denominator separately so callers can
// combine scores across several tensors variance-weighted rather than
// averaging per-tensor ratios.
package metrics

import (
	"math"

	"github.com/ezoic/tensorpack/core/tensor"
	"github.com/ezoic/tensorpack/pkg/errors"
)

// R2XParts returns the squared reconstruction error (top) and the squared
// norm of the observed data (bottom) that make up the R2X formula.
// Non-finite entries of observed are excluded from both terms.
func R2XParts(observed, recon *tensor.Tensor) (top, bottom float64, err error) {
	if observed == nil || recon == nil {
		return 0, 0, errors.NewModelError("metrics.R2XParts", "nil tensor", errors.ErrEmptyData)
	}

	obsData := observed.Data()
	reconData := recon.Data()
	if len(obsData) != len(reconData) {
		return 0, 0, errors.NewDimensionError("metrics.R2XParts", len(obsData), len(reconData), 0)
	}

	for i, o := range obsData {
		if math.IsNaN(o) || math.IsInf(o, 0) {
			continue
		}
		diff := reconData[i] - o
		top += diff * diff
		bottom += o * o
	}
	return top, bottom, nil
}

// R2X computes the explained-variance score of recon against observed.
// An observed tensor with zero finite entries makes the score undefined
// and yields an error matching errors.ErrDegenerateData; the function never
// returns NaN or Inf.
func R2X(observed, recon *tensor.Tensor) (float64, error) {
	top, bottom, err := R2XParts(observed, recon)
	if err != nil {
		return 0, err
	}
	if bottom == 0 {
		return 0, errors.NewModelError("metrics.R2X",
			"observed data has no finite entries", errors.ErrDegenerateData)
	}
	return 1.0 - top/bottom, nil
}
