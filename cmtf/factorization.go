package cmtf

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tensorpack/core/parallel"
	"github.com/ezoic/tensorpack/core/tensor"
	"github.com/ezoic/tensorpack/metrics"
	"github.com/ezoic/tensorpack/pkg/errors"
)

// Below this many entries a reconstruction runs single-threaded.
const reconParallelThreshold = 4096

// CPFactorization is one variable's slice of the coupled factorization:
// its weight row and, in the variable's axis order, the relevant factor
// matrices. The factor matrices are the live coupled state, not copies.
type CPFactorization struct {
	// Weights is the rank-length weight row for the variable.
	Weights []float64

	// Axes lists the variable's axis names, ordering Factors.
	Axes []string

	// Factors holds one (axis length × rank) matrix per axis.
	Factors []*mat.Dense
}

// Factorization returns the CP factorization of the named variable.
func (c *CoupledTensor) Factorization(varName string) (*CPFactorization, error) {
	axes, err := c.data.VarAxes(varName)
	if err != nil {
		return nil, err
	}

	varIdx := -1
	for i, name := range c.data.Vars() {
		if name == varName {
			varIdx = i
			break
		}
	}

	weights := make([]float64, c.rank)
	mat.Row(weights, varIdx, c.weights)

	factors := make([]*mat.Dense, len(axes))
	for i, a := range axes {
		factors[i] = c.factors[a]
	}

	return &CPFactorization{Weights: weights, Axes: axes, Factors: factors}, nil
}

// Tensor expands the factorization back into a dense tensor: the sum over
// rank components of the weighted outer product of the factor columns.
func (f *CPFactorization) Tensor() *tensor.Tensor {
	shape := make([]int, len(f.Factors))
	for i, m := range f.Factors {
		r, _ := m.Dims()
		shape[i] = r
	}

	out, err := tensor.Zeros(shape...)
	if err != nil {
		// Factor matrices always have positive dimensions.
		panic(err)
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	rank := len(f.Weights)
	data := out.Data()
	parallel.ParallelizeWithThreshold(len(data), reconParallelThreshold, func(start, end int) {
		idx := make([]int, len(shape))
		for flat := start; flat < end; flat++ {
			rem := flat
			for k := range shape {
				idx[k] = rem / strides[k]
				rem %= strides[k]
			}
			var sum float64
			for r := 0; r < rank; r++ {
				term := f.Weights[r]
				for k, m := range f.Factors {
					term *= m.At(idx[k], r)
				}
				sum += term
			}
			data[flat] = sum
		}
	})
	return out
}

// Reconstruction is a reconstructed variable and its explained-variance
// score against the original data.
type Reconstruction struct {
	Name   string
	Axes   []string
	Tensor *tensor.Tensor
	R2X    float64
}

// Reconstruct rebuilds the named variable from the current factor state
// and scores it against the original data.
func (c *CoupledTensor) Reconstruct(varName string) (*Reconstruction, error) {
	fac, err := c.Factorization(varName)
	if err != nil {
		return nil, err
	}
	recon := fac.Tensor()

	r2x, err := c.scoreAgainst(varName, recon)
	if err != nil {
		return nil, err
	}

	return &Reconstruction{
		Name:   varName,
		Axes:   fac.Axes,
		Tensor: recon,
		R2X:    r2x,
	}, nil
}

// ReconstructAll rebuilds every variable, keyed by name, each carrying its
// own R2X.
func (c *CoupledTensor) ReconstructAll() (map[string]*Reconstruction, error) {
	out := make(map[string]*Reconstruction, c.data.NumVars())
	for _, name := range c.data.Vars() {
		rec, err := c.Reconstruct(name)
		if err != nil {
			return nil, err
		}
		out[name] = rec
	}
	return out, nil
}

// Score returns the R2X of the named variable's reconstruction. A variable
// with zero finite entries has an undefined score and yields a
// DegenerateDataError.
func (c *CoupledTensor) Score(varName string) (float64, error) {
	fac, err := c.Factorization(varName)
	if err != nil {
		return 0, err
	}
	return c.scoreAgainst(varName, fac.Tensor())
}

func (c *CoupledTensor) scoreAgainst(varName string, recon *tensor.Tensor) (float64, error) {
	observed, err := c.data.Var(varName)
	if err != nil {
		return 0, err
	}
	top, bottom, err := metrics.R2XParts(observed, recon)
	if err != nil {
		return 0, err
	}
	if bottom == 0 {
		return 0, errors.NewDegenerateDataError("CoupledTensor.Score", varName)
	}
	return 1.0 - top/bottom, nil
}

// ScoreAll returns the overall R2X across every variable. The squared
// errors and squared norms are summed before dividing, so the result is
// variance-weighted by each variable's magnitude rather than an average of
// per-variable scores.
func (c *CoupledTensor) ScoreAll() (float64, error) {
	var top, bottom float64
	for _, name := range c.data.Vars() {
		fac, err := c.Factorization(name)
		if err != nil {
			return 0, err
		}
		observed, err := c.data.Var(name)
		if err != nil {
			return 0, err
		}
		t, b, err := metrics.R2XParts(observed, fac.Tensor())
		if err != nil {
			return 0, err
		}
		top += t
		bottom += b
	}
	if bottom == 0 {
		return 0, errors.NewModelError("CoupledTensor.ScoreAll",
			"no finite entries in any variable", errors.ErrDegenerateData)
	}
	return 1.0 - top/bottom, nil
}
