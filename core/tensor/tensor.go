// Package tensor provides a dense N-dimensional array with the operations
// the coupled factorization core needs: strided element access, mode-n
// unfolding to a gonum matrix, finiteness masking, and Frobenius norms.
//
// Storage is a flat []float64 in row-major order. 2-D views hand off to
// gonum/mat; everything higher-dimensional stays in this package.
package tensor

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tensorpack/pkg/errors"
)

// Tensor is a dense multidimensional array in row-major order.
type Tensor struct {
	data    []float64
	shape   []int
	strides []int
}

// New creates a tensor from a flat row-major data slice and a shape.
// The data slice is used directly, not copied.
func New(data []float64, shape ...int) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, errors.NewValueError("tensor.New", "shape must be provided")
	}

	size := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, errors.NewValueError("tensor.New", "all dimensions must be positive")
		}
		size *= s
	}

	if len(data) != size {
		return nil, errors.NewDimensionError("tensor.New", size, len(data), 0)
	}

	return &Tensor{
		data:    data,
		shape:   append([]int{}, shape...),
		strides: rowMajorStrides(shape),
	}, nil
}

// Zeros creates a zero-filled tensor of the given shape.
func Zeros(shape ...int) (*Tensor, error) {
	size := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, errors.NewValueError("tensor.Zeros", "all dimensions must be positive")
		}
		size *= s
	}
	return New(make([]float64, size), shape...)
}

// Ones creates a tensor of the given shape filled with 1.
func Ones(shape ...int) (*Tensor, error) {
	t, err := Zeros(shape...)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = 1.0
	}
	return t, nil
}

// Rand creates a tensor of the given shape with entries drawn uniformly
// from [0, 1) using rng.
func Rand(rng *rand.Rand, shape ...int) (*Tensor, error) {
	t, err := Zeros(shape...)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = rng.Float64()
	}
	return t, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	return append([]int{}, t.shape...)
}

// NDim returns the number of dimensions.
func (t *Tensor) NDim() int {
	return len(t.shape)
}

// Size returns the total number of entries.
func (t *Tensor) Size() int {
	return len(t.data)
}

// At returns the value at the given multi-index. Panics if the number of
// indices does not match NDim or an index is out of range, matching
// gonum/mat access semantics.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set stores v at the given multi-index. Panics on an invalid index.
func (t *Tensor) Set(v float64, indices ...int) {
	t.data[t.offset(indices)] = v
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic("tensor: wrong number of indices")
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic("tensor: index out of range")
		}
		off += idx * t.strides[i]
	}
	return off
}

// Data returns the underlying flat row-major data slice. Mutating it
// mutates the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Copy returns a deep copy of the tensor.
func (t *Tensor) Copy() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{
		data:    data,
		shape:   append([]int{}, t.shape...),
		strides: append([]int{}, t.strides...),
	}
}

// Unfold flattens the tensor to a matrix with the given axis as rows.
// The remaining axes keep their relative order and are flattened row-major
// into the columns, so for an (I, J, K) tensor Unfold(1) yields a (J, I*K)
// matrix with column index i*K + k.
func (t *Tensor) Unfold(axis int) (*mat.Dense, error) {
	if axis < 0 || axis >= len(t.shape) {
		return nil, errors.NewValueError("Tensor.Unfold", "axis out of range")
	}

	rows := t.shape[axis]
	cols := len(t.data) / rows
	out := mat.NewDense(rows, cols, nil)

	idx := make([]int, len(t.shape))
	for flat := range t.data {
		col := 0
		for i, x := range idx {
			if i != axis {
				col = col*t.shape[i] + x
			}
		}
		out.Set(idx[axis], col, t.data[flat])
		increment(idx, t.shape)
	}
	return out, nil
}

// increment advances a row-major multi-index odometer by one position,
// wrapping back to all zeros after the last index.
func increment(idx, shape []int) {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return
		}
		idx[i] = 0
	}
}

// CountFinite returns the number of finite (non-NaN, non-Inf) entries.
func (t *Tensor) CountFinite() int {
	n := 0
	for _, v := range t.data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// ZeroFillNonFinite returns a copy with every NaN or Inf entry replaced
// by zero. The receiver is unchanged.
func (t *Tensor) ZeroFillNonFinite() *Tensor {
	out := t.Copy()
	for i, v := range out.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out.data[i] = 0
		}
	}
	return out
}

// Norm returns the Frobenius norm over all entries.
func (t *Tensor) Norm() float64 {
	return math.Sqrt(floats.Dot(t.data, t.data))
}
