package cmtf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/tensorpack/dataset"
)

func randomDense(rng *rand.Rand, r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(r, c, data)
}

// End-to-end coupled factorization on the sample-style dataset: svd init,
// full ALS run, monotonically non-decreasing global R2X, terminal status.
func TestFitEndToEnd(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(3)))

	c, err := New(d, 3)
	require.NoError(t, err)
	require.NoError(t, c.Initialize(InitSVD))

	var history []float64
	res, err := c.Fit(
		WithTol(1e-6),
		WithMaxIter(50),
		WithProgress(ProgressFunc(func(sweep int, r2x, delta float64) {
			history = append(history, r2x)
		})),
	)
	require.NoError(t, err)

	assert.Contains(t, []Status{StatusConverged, StatusIterationLimit}, res.Status)
	assert.Equal(t, res.Status, c.Status())
	assert.Equal(t, len(history), res.Sweeps)
	assert.GreaterOrEqual(t, res.Sweeps, 1)
	assert.LessOrEqual(t, res.Sweeps, 50)

	// Each full sweep is a block-coordinate descent step on the shared
	// objective, so the global R2X never decreases (up to round-off).
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1]-1e-9,
			"R2X decreased at sweep %d: %v -> %v", i+1, history[i-1], history[i])
	}

	require.NotEmpty(t, history)
	assert.InDelta(t, history[len(history)-1], res.R2X, 1e-15)

	// The fitted model must beat the uninformative all-ones start by a wide
	// margin on random data at rank 3.
	assert.Greater(t, res.R2X, 0.5)

	// Terminal states still expose reconstruction and scoring.
	recs, err := c.ReconstructAll()
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	global, err := c.ScoreAll()
	require.NoError(t, err)
	assert.InDelta(t, res.R2X, global, 1e-12)
}

// A second Fit call resumes from the terminal state rather than failing.
func TestFitResume(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(5)))

	c, err := New(d, 2)
	require.NoError(t, err)
	require.NoError(t, c.Initialize(InitSVD))

	first, err := c.Fit(WithMaxIter(2), WithTol(0))
	require.NoError(t, err)
	require.Equal(t, StatusIterationLimit, first.Status)

	second, err := c.Fit(WithMaxIter(50), WithTol(1e-6))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.R2X, first.R2X-1e-9)
}

func TestProgressSinkObservesConvergence(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(9)))

	c, err := New(d, 2)
	require.NoError(t, err)
	require.NoError(t, c.Initialize(InitSVD))

	sweeps := 0
	lastDelta := 0.0
	res, err := c.Fit(
		WithTol(1e-4),
		WithMaxIter(50),
		WithProgress(ProgressFunc(func(sweep int, r2x, delta float64) {
			sweeps = sweep
			lastDelta = delta
		})),
	)
	require.NoError(t, err)
	assert.Equal(t, res.Sweeps, sweeps)

	if res.Status == StatusConverged {
		assert.Less(t, lastDelta, 1e-4)
	}
}
