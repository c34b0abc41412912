package decompose

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/tensorpack/cmtf"
	"github.com/ezoic/tensorpack/dataset"
)

func TestNewValidation(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(1)))

	if _, err := New(nil, 3); err == nil {
		t.Errorf("New(nil) expected error")
	}
	if _, err := New(dataset.New(), 3); err == nil {
		t.Errorf("New(empty) expected error")
	}
	if _, err := New(d, 0); err == nil {
		t.Errorf("New(d, 0) expected error")
	}
}

func TestRunRecordsCurve(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(21)))

	dec, err := New(d, 3, WithMaxIter(20), WithTol(1e-5))
	require.NoError(t, err)

	assert.Empty(t, dec.Results())
	if _, ok := dec.Best(); ok {
		t.Errorf("Best() before Run should report no results")
	}

	require.NoError(t, dec.Run())

	results := dec.Results()
	require.Len(t, results, 3)

	// params per rank: axes 8+7+6+5+4 = 30, plus 3 variables = 33.
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, (i+1)*33, r.Size)
		assert.Contains(t, []cmtf.Status{cmtf.StatusConverged, cmtf.StatusIterationLimit}, r.Status)
		assert.GreaterOrEqual(t, r.Sweeps, 1)
	}

	// More components never explain less variance, up to ALS slack on
	// random data.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].R2X, results[i-1].R2X-0.02,
			"rank %d R2X fell below rank %d", results[i].Rank, results[i-1].Rank)
	}

	best, ok := dec.Best()
	require.True(t, ok)
	for _, r := range results {
		assert.GreaterOrEqual(t, best.R2X, r.R2X)
	}
}

func TestRunWithOnesInit(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(2)))

	dec, err := New(d, 1, WithInit(cmtf.InitOnes), WithMaxIter(10))
	require.NoError(t, err)
	require.NoError(t, dec.Run())
	require.Len(t, dec.Results(), 1)
}

func TestRunUnknownInit(t *testing.T) {
	d := dataset.Sample(rand.New(rand.NewSource(2)))

	dec, err := New(d, 2, WithInit("bogus"))
	require.NoError(t, err)
	require.Error(t, dec.Run())
}
