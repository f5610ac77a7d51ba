package pod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morkit/eigo/testutil"
	"github.com/morkit/eigo/vector"
)

// diagProduct is a diagonally weighted inner product for testing.
type diagProduct struct {
	weights []float64
}

func (p diagProduct) Apply2(a, b vector.Array) ([][]float64, error) {
	out := make([][]float64, a.Len())
	for i := range out {
		row := make([]float64, b.Len())
		ai := a.CopyAt(i)
		for j := range row {
			bj := b.CopyAt(j)
			s := 0.0
			for k, w := range p.weights {
				s += w * ai[k] * bj[k]
			}
			row[j] = s
		}
		out[i] = row
	}
	return out, nil
}

func TestComputeOrthonormalModes(t *testing.T) {
	rng := testutil.NewRNG(21)
	snapshots, err := vector.NewDenseFromRows(rng.GaussianVectors(4, 6))
	require.NoError(t, err)

	modes, svals, err := Compute(snapshots, 0)
	require.NoError(t, err)
	require.Equal(t, 4, modes.Len())
	require.Equal(t, 4, len(svals))

	// Singular values descend.
	for i := 1; i < len(svals); i++ {
		assert.LessOrEqual(t, svals[i], svals[i-1])
	}

	gram := modes.Gramian()
	for i := range gram {
		for j := range gram[i] {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, gram[i][j], 1e-10, "gramian entry (%d,%d)", i, j)
		}
	}
}

func TestComputeModesCap(t *testing.T) {
	rng := testutil.NewRNG(22)
	snapshots, err := vector.NewDenseFromRows(rng.GaussianVectors(5, 8))
	require.NoError(t, err)

	modes, svals, err := Compute(snapshots, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, modes.Len())
	assert.Equal(t, 2, len(svals))
}

func TestComputeDropsNoiseModes(t *testing.T) {
	// A rank-one snapshot set: everything past the first mode is roundoff
	// noise and must fall below the relative cutoff.
	rng := testutil.NewRNG(23)
	snapshots, err := vector.NewDenseFromRows(rng.RankOneVectors(5, 6))
	require.NoError(t, err)

	modes, svals, err := Compute(snapshots, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, modes.Len())
	assert.Equal(t, 1, len(svals))
	assert.Greater(t, svals[0], 0.0)
}

func TestComputeRelTolOverride(t *testing.T) {
	snapshots, err := vector.NewDenseFromRows([][]float64{
		{1, 0},
		{1, 1e-3},
	})
	require.NoError(t, err)

	// With a loose cutoff only the dominant mode survives.
	modes, _, err := Compute(snapshots, 0, WithRelTol(1e-2))
	require.NoError(t, err)
	assert.Equal(t, 1, modes.Len())

	modes, _, err = Compute(snapshots, 0, WithRelTol(1e-6))
	require.NoError(t, err)
	assert.Equal(t, 2, modes.Len())
}

func TestComputeWithProduct(t *testing.T) {
	rng := testutil.NewRNG(24)
	snapshots, err := vector.NewDenseFromRows(rng.GaussianVectors(3, 5))
	require.NoError(t, err)

	product := diagProduct{weights: []float64{1, 2, 3, 4, 5}}
	modes, _, err := Compute(snapshots, 0, WithProduct(product))
	require.NoError(t, err)
	require.Equal(t, 3, modes.Len())

	// Orthonormal with respect to the product, not the Euclidean one.
	gram, err := product.Apply2(modes, modes)
	require.NoError(t, err)
	for i := range gram {
		for j := range gram[i] {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, gram[i][j], 1e-10)
		}
	}
}

func TestComputeEmptySnapshots(t *testing.T) {
	_, _, err := Compute(vector.NewDense(4), 0)
	assert.ErrorIs(t, err, ErrEmptySnapshots)
}
