// Package decompose provides rank selection for coupled tensor
// factorization: it fits the model at every candidate rank and records the
// explained-variance / model-size trade-off curve.
//
// Rank search deliberately lives outside the cmtf core. Each candidate
// rank gets a fresh cmtf.CoupledTensor, so candidates are independent and
// could be evaluated concurrently by a caller if desired.
package decompose

import (
	"time"

	"github.com/ezoic/tensorpack/cmtf"
	"github.com/ezoic/tensorpack/dataset"
	"github.com/ezoic/tensorpack/pkg/errors"
	"github.com/ezoic/tensorpack/pkg/log"
)

// RankResult records the outcome of fitting one candidate rank.
type RankResult struct {
	// Rank is the candidate number of components.
	Rank int

	// R2X is the global explained variance after fitting.
	R2X float64

	// Status is the terminal ALS state (converged or iteration limit).
	Status cmtf.Status

	// Sweeps is the number of ALS sweeps performed.
	Sweeps int

	// Size is the number of model parameters: rank × (sum of all axis
	// lengths + number of variables).
	Size int
}

// Decomposition runs a coupled CP factorization at each rank 1..maxRank.
type Decomposition struct {
	data    *dataset.Dataset
	maxRank int
	tol     float64
	maxIter int
	method  string

	results []RankResult
	logger  log.Logger
}

// Option configures a Decomposition.
type Option func(*Decomposition)

// WithTol sets the per-fit convergence tolerance.
func WithTol(tol float64) Option {
	return func(d *Decomposition) {
		d.tol = tol
	}
}

// WithMaxIter sets the per-fit sweep cap.
func WithMaxIter(maxIter int) Option {
	return func(d *Decomposition) {
		d.maxIter = maxIter
	}
}

// WithInit sets the initialization method passed to each fit.
func WithInit(method string) Option {
	return func(d *Decomposition) {
		d.method = method
	}
}

// New creates a rank sweep over data for ranks 1 through maxRank.
func New(data *dataset.Dataset, maxRank int, opts ...Option) (*Decomposition, error) {
	if data == nil || data.NumVars() == 0 {
		return nil, errors.NewModelError("decompose.New", "empty dataset", errors.ErrEmptyData)
	}
	if maxRank < 1 {
		return nil, errors.NewValueError("decompose.New", "maxRank must be a positive integer")
	}

	d := &Decomposition{
		data:    data,
		maxRank: maxRank,
		tol:     1e-6,
		maxIter: 50,
		method:  cmtf.InitSVD,
		logger: log.GetLoggerWithName("decompose").With(
			log.ComponentKey, "decompose",
		),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run fits every candidate rank in order and records the results. Results
// from a previous Run are discarded.
func (d *Decomposition) Run() error {
	startTime := time.Now()
	d.results = d.results[:0]

	paramsPerRank := d.data.NumVars()
	for _, axis := range d.data.Axes() {
		n, err := d.data.AxisLen(axis)
		if err != nil {
			return err
		}
		paramsPerRank += n
	}

	for rank := 1; rank <= d.maxRank; rank++ {
		c, err := cmtf.New(d.data, rank)
		if err != nil {
			return err
		}
		if err := c.Initialize(d.method); err != nil {
			return errors.Wrapf(err, "initializing rank %d", rank)
		}
		res, err := c.Fit(cmtf.WithTol(d.tol), cmtf.WithMaxIter(d.maxIter))
		if err != nil {
			return errors.Wrapf(err, "fitting rank %d", rank)
		}

		d.results = append(d.results, RankResult{
			Rank:   rank,
			R2X:    res.R2X,
			Status: res.Status,
			Sweeps: res.Sweeps,
			Size:   rank * paramsPerRank,
		})

		d.logger.Debug("Rank candidate fitted",
			log.RankKey, rank,
			log.R2XKey, res.R2X,
			log.SweepKey, res.Sweeps,
		)
	}

	d.logger.Info("Rank sweep completed",
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		"max_rank", d.maxRank,
	)
	return nil
}

// Results returns the recorded per-rank outcomes in rank order. Empty
// until Run has been called.
func (d *Decomposition) Results() []RankResult {
	return append([]RankResult{}, d.results...)
}

// Best returns the result with the highest R2X. The second return is false
// if Run has not produced any results.
func (d *Decomposition) Best() (RankResult, bool) {
	if len(d.results) == 0 {
		return RankResult{}, false
	}
	best := d.results[0]
	for _, r := range d.results[1:] {
		if r.R2X > best.R2X {
			best = r
		}
	}
	return best, true
}
