// Package cmtf implements coupled tensor factorization: a joint
// CANDECOMP/PARAFAC (CP) decomposition of several tensors that share some
// of their axes.
//
// A CoupledTensor holds one factor matrix per axis (axis length × rank) and
// one weight matrix (variables × rank). Axes shared between variables share
// a single factor matrix, which is what couples the decomposition. Fitting
// alternates least-squares updates over the axes: for each axis the design
// matrix is the Khatri-Rao product of the other axes' factors, concatenated
// across every variable that uses the axis, and the target is the matching
// concatenated unfolding of the data.
//
// Typical usage:
//
//	c, err := cmtf.New(data, 3)
//	if err != nil { ... }
//	if err := c.Initialize(cmtf.InitSVD); err != nil { ... }
//	result, err := c.Fit(cmtf.WithTol(1e-6), cmtf.WithMaxIter(50))
//	if err != nil { ... }
//	r2x, err := c.ScoreAll()
//
// The input Dataset is treated as read-only; unfoldings are cached at
// construction time. A CoupledTensor is not safe for concurrent use;
// concurrent runs over the same Dataset must each construct their own
// instance.
package cmtf

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tensorpack/dataset"
	"github.com/ezoic/tensorpack/pkg/errors"
	"github.com/ezoic/tensorpack/pkg/log"
)

// Initialization methods accepted by Initialize.
const (
	// InitOnes sets every factor matrix and the weight matrix to all ones.
	InitOnes = "ones"

	// InitSVD seeds each factor matrix with the leading left singular
	// vectors of that axis's unfolded data.
	InitSVD = "svd"
)

// Status is the lifecycle state of a CoupledTensor.
type Status int

const (
	// StatusUninitialized means Initialize has not been called.
	StatusUninitialized Status = iota
	// StatusInitialized means factor matrices are seeded but not fitted.
	StatusInitialized
	// StatusConverged means Fit stopped because the R2X improvement fell
	// below the tolerance.
	StatusConverged
	// StatusIterationLimit means Fit stopped at the sweep cap without
	// converging. This is a normal terminal state, not an error.
	StatusIterationLimit
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitialized:
		return "initialized"
	case StatusConverged:
		return "converged"
	case StatusIterationLimit:
		return "iteration limit reached"
	default:
		return "unknown"
	}
}

// CoupledTensor is the factorization state for one dataset at one rank.
type CoupledTensor struct {
	data *dataset.Dataset
	rank int

	// factors maps axis name to its (axis length × rank) factor matrix.
	factors map[string]*mat.Dense

	// weights is (number of variables × rank); row order follows data.Vars().
	weights *mat.Dense

	// unfolded caches the concatenated mode-n unfolding per axis. Computed
	// once at construction; the dataset must not change afterwards.
	unfolded map[string]*mat.Dense

	status Status
	logger log.Logger
}

// New creates the factorization state for data at the given rank. The
// unfolding cache is built here, so construction cost is proportional to
// the total data size.
func New(data *dataset.Dataset, rank int) (*CoupledTensor, error) {
	if data == nil || data.NumVars() == 0 {
		return nil, errors.NewModelError("cmtf.New", "empty dataset", errors.ErrEmptyData)
	}
	if rank < 1 {
		return nil, errors.NewValueError("cmtf.New", "rank must be a positive integer")
	}

	c := &CoupledTensor{
		data:     data,
		rank:     rank,
		factors:  make(map[string]*mat.Dense),
		weights:  onesMatrix(data.NumVars(), rank),
		unfolded: make(map[string]*mat.Dense),
		status:   StatusUninitialized,
		logger: log.GetLoggerWithName("cmtf").With(
			log.ModelNameKey, "CoupledTensor",
			log.ComponentKey, "cmtf",
			log.RankKey, rank,
		),
	}

	for _, axis := range data.Axes() {
		n, err := data.AxisLen(axis)
		if err != nil {
			return nil, err
		}
		c.factors[axis] = onesMatrix(n, rank)

		unf, err := unfoldDataset(data, axis)
		if err != nil {
			return nil, err
		}
		if unf != nil {
			c.unfolded[axis] = unf
		}
	}

	return c, nil
}

// unfoldDataset flattens every variable containing axis with that axis as
// rows and concatenates the results column-wise in dataset.VarsWithAxis
// order. Returns nil if no variable uses the axis.
func unfoldDataset(data *dataset.Dataset, axis string) (*mat.Dense, error) {
	names := data.VarsWithAxis(axis)
	if len(names) == 0 {
		return nil, nil
	}

	rows, err := data.AxisLen(axis)
	if err != nil {
		return nil, err
	}

	blocks := make([]*mat.Dense, 0, len(names))
	cols := 0
	for _, name := range names {
		t, err := data.Var(name)
		if err != nil {
			return nil, err
		}
		axes, err := data.VarAxes(name)
		if err != nil {
			return nil, err
		}
		m, err := t.Unfold(axisIndex(axes, axis))
		if err != nil {
			return nil, errors.Wrapf(err, "unfolding %q along %q", name, axis)
		}
		_, bc := m.Dims()
		cols += bc
		blocks = append(blocks, m)
	}

	out := mat.NewDense(rows, cols, nil)
	off := 0
	for _, b := range blocks {
		_, bc := b.Dims()
		out.Slice(0, rows, off, off+bc).(*mat.Dense).Copy(b)
		off += bc
	}
	return out, nil
}

func axisIndex(axes []string, axis string) int {
	for i, a := range axes {
		if a == axis {
			return i
		}
	}
	return -1
}

func onesMatrix(r, c int) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, 1.0)
		}
	}
	return m
}

// Initialize seeds the factor matrices using the named method (InitOnes or
// InitSVD) and resets the weight matrix to all ones.
//
// For InitSVD each factor matrix's first min(rank, axis length) columns are
// set to the leading left singular vectors of that axis's cached unfolding;
// later columns keep the all-ones default. Non-finite entries are zero
// filled in a scratch copy before the singular value computation, so the
// original data is never modified.
func (c *CoupledTensor) Initialize(method string) error {
	switch method {
	case InitOnes, InitSVD:
	default:
		return errors.NewValueError("CoupledTensor.Initialize",
			"unknown initialization method "+method)
	}

	for _, axis := range c.data.Axes() {
		fillOnes(c.factors[axis])
	}

	if method == InitSVD {
		for _, axis := range c.data.Axes() {
			unf, ok := c.unfolded[axis]
			if !ok {
				continue
			}
			if err := c.seedFactorFromSVD(axis, unf); err != nil {
				return err
			}
		}
	}

	fillOnes(c.weights)
	c.status = StatusInitialized

	c.logger.Debug("Factor matrices initialized",
		log.OperationKey, log.OperationInit,
		"method", method,
	)
	return nil
}

func (c *CoupledTensor) seedFactorFromSVD(axis string, unf *mat.Dense) error {
	scratch := mat.DenseCopyOf(unf)
	zeroFillNonFinite(scratch)

	var svd mat.SVD
	if ok := svd.Factorize(scratch, mat.SVDThin); !ok {
		return errors.NewNumericalFailureError("CoupledTensor.Initialize", axis, 0,
			errors.ErrNumericalFailure)
	}
	var u mat.Dense
	svd.UTo(&u)

	factor := c.factors[axis]
	n, _ := factor.Dims()
	_, uc := u.Dims()
	k := min(c.rank, n)
	if k > uc {
		k = uc
	}
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			factor.Set(i, j, u.At(i, j))
		}
	}
	return nil
}

func fillOnes(m *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, 1.0)
		}
	}
}

func zeroFillNonFinite(m *mat.Dense) {
	raw := m.RawMatrix()
	for i, v := range raw.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			raw.Data[i] = 0
		}
	}
}

// KhatriRao builds the least-squares design matrix for the given axis: for
// every variable containing the axis, the Khatri-Rao product of the
// variable's other axes' factor matrices (in the variable's axis order),
// concatenated row-wise across variables in the same order the unfolding
// concatenates columns. A variable for which the axis is its only axis
// contributes a single all-ones row, the degenerate Khatri-Rao of an empty
// factor list.
func (c *CoupledTensor) KhatriRao(axis string) (*mat.Dense, error) {
	names := c.data.VarsWithAxis(axis)
	if len(names) == 0 {
		return nil, errors.NewValueError("CoupledTensor.KhatriRao",
			"axis "+axis+" is not used by any variable")
	}

	blocks := make([]*mat.Dense, 0, len(names))
	rows := 0
	for _, name := range names {
		axes, err := c.data.VarAxes(name)
		if err != nil {
			return nil, err
		}
		var others []*mat.Dense
		for _, a := range axes {
			if a != axis {
				others = append(others, c.factors[a])
			}
		}
		b := khatriRao(others, c.rank)
		br, _ := b.Dims()
		rows += br
		blocks = append(blocks, b)
	}

	out := mat.NewDense(rows, c.rank, nil)
	off := 0
	for _, b := range blocks {
		br, _ := b.Dims()
		out.Slice(off, off+br, 0, c.rank).(*mat.Dense).Copy(b)
		off += br
	}
	return out, nil
}

// khatriRao computes the column-wise Khatri-Rao product of ms, left to
// right. Row ordering matches a row-major flattening over the inputs'
// row indices, which is what pairs it with Tensor.Unfold's column order.
// An empty list yields the 1×rank all-ones matrix.
func khatriRao(ms []*mat.Dense, rank int) *mat.Dense {
	out := onesMatrix(1, rank)
	for _, m := range ms {
		mr, _ := m.Dims()
		or, _ := out.Dims()
		next := mat.NewDense(or*mr, rank, nil)
		for i := 0; i < or; i++ {
			for j := 0; j < mr; j++ {
				for r := 0; r < rank; r++ {
					next.Set(i*mr+j, r, out.At(i, r)*m.At(j, r))
				}
			}
		}
		out = next
	}
	return out
}

// Unfold returns the cached concatenated unfolding for the given axis.
// The returned matrix is shared state and must be treated as read-only.
func (c *CoupledTensor) Unfold(axis string) (*mat.Dense, error) {
	unf, ok := c.unfolded[axis]
	if !ok {
		return nil, errors.NewValueError("CoupledTensor.Unfold",
			"axis "+axis+" is not used by any variable")
	}
	return unf, nil
}

// Factor returns the factor matrix for the given axis. The returned matrix
// is the live factorization state and must be treated as read-only; it is
// rewritten in place by Fit.
func (c *CoupledTensor) Factor(axis string) (*mat.Dense, error) {
	f, ok := c.factors[axis]
	if !ok {
		return nil, errors.NewValueError("CoupledTensor.Factor", "unknown axis "+axis)
	}
	return f, nil
}

// Weights returns the (variables × rank) weight matrix, row order matching
// Data().Vars(). Read-only, same as Factor.
func (c *CoupledTensor) Weights() *mat.Dense {
	return c.weights
}

// Rank returns the number of latent components.
func (c *CoupledTensor) Rank() int {
	return c.rank
}

// Data returns the underlying dataset.
func (c *CoupledTensor) Data() *dataset.Dataset {
	return c.data
}

// Status returns the current lifecycle state.
func (c *CoupledTensor) Status() Status {
	return c.status
}

// FactorTable returns the factor matrix for an axis keyed by the axis's
// coordinate labels; each entry is that coordinate's rank-length loading
// vector.
func (c *CoupledTensor) FactorTable(axis string) (map[string][]float64, error) {
	f, err := c.Factor(axis)
	if err != nil {
		return nil, err
	}
	ax, err := c.data.Axis(axis)
	if err != nil {
		return nil, err
	}

	table := make(map[string][]float64, ax.Len())
	for i, label := range ax.Labels {
		row := make([]float64, c.rank)
		mat.Row(row, i, f)
		table[label] = row
	}
	return table, nil
}

// WeightTable returns each variable's weight row keyed by variable name.
func (c *CoupledTensor) WeightTable() map[string][]float64 {
	names := c.data.Vars()
	table := make(map[string][]float64, len(names))
	for i, name := range names {
		row := make([]float64, c.rank)
		mat.Row(row, i, c.weights)
		table[name] = row
	}
	return table
}
