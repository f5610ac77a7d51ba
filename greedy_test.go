package eigo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morkit/eigo/testutil"
	"github.com/morkit/eigo/vector"
)

func mustDense(t *testing.T, rows [][]float64) *vector.Dense {
	t.Helper()
	d, err := vector.NewDenseFromRows(rows)
	require.NoError(t, err)
	return d
}

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

func TestEIGreedyConverges(t *testing.T) {
	evals := mustDense(t, [][]float64{
		{1, 0, 0, 1},
		{0, 2, 0, 1},
		{0, 0, 3, 1},
	})

	dofs, basis, hist, err := EIGreedy(context.Background(), Evaluations(evals),
		WithTargetError(1e-12),
	)
	require.NoError(t, err)

	assert.Equal(t, StopConverged, hist.Stop)
	assert.Equal(t, 3, len(dofs))
	assert.Equal(t, len(dofs), basis.Len())
	assert.Equal(t, len(dofs), len(hist.Errors))
	assert.Equal(t, len(dofs), len(hist.TriangularityErrors))

	// Errors recorded at acceptance decrease monotonically here.
	for i := 1; i < len(hist.Errors); i++ {
		assert.LessOrEqual(t, hist.Errors[i], hist.Errors[i-1])
	}
}

func TestEIGreedyMaxDOFsReached(t *testing.T) {
	evals := mustDense(t, [][]float64{
		{1, 0},
		{0, 1},
	})

	dofs, basis, hist, err := EIGreedy(context.Background(), Evaluations(evals),
		WithMaxInterpolationDOFs(1),
	)
	require.NoError(t, err)

	assert.Equal(t, StopMaxDOFsReached, hist.Stop)
	assert.Equal(t, 1, len(dofs))
	assert.Equal(t, 1, basis.Len())
	assert.Equal(t, 1, len(hist.Errors))
}

func TestEIGreedyDOFCollision(t *testing.T) {
	// Two multiples of the same direction: the second step proposes the
	// already-used component again.
	evals := mustDense(t, [][]float64{
		{2, 0, 0},
		{3, 0, 0},
	})

	dofs, basis, hist, err := EIGreedy(context.Background(), Evaluations(evals))
	require.NoError(t, err)

	assert.Equal(t, StopDOFCollision, hist.Stop)
	assert.Equal(t, []int{0}, dofs)
	assert.Equal(t, 1, basis.Len())
}

func TestEIGreedyInputValidation(t *testing.T) {
	ctx := context.Background()
	valid := mustDense(t, [][]float64{{1, 2}})

	tests := []struct {
		name    string
		source  EvaluationSource
		opts    []Option
		wantErr error
	}{
		{
			name:    "NilSource",
			source:  nil,
			wantErr: ErrEmptyEvaluations,
		},
		{
			name:    "NoBatches",
			source:  Evaluations(),
			wantErr: ErrEmptyEvaluations,
		},
		{
			name:    "EmptyFirstBatch",
			source:  Evaluations(vector.NewDense(3)),
			wantErr: ErrEmptyEvaluations,
		},
		{
			name:    "ProductWithEIProjection",
			source:  Evaluations(valid),
			opts:    []Option{WithProduct(diagProduct{weights: []float64{1, 1}}), WithProjection(ProjectionEI)},
			wantErr: ErrProductRequiresOrthogonal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := EIGreedy(ctx, tt.source, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("InvalidProjection", func(t *testing.T) {
		_, _, _, err := EIGreedy(ctx, Evaluations(valid), WithProjection(Projection(7)))
		var ip *ErrInvalidProjection
		require.ErrorAs(t, err, &ip)
		assert.Equal(t, Projection(7), ip.Projection)
	})
}

func TestEIGreedyDimensionMismatch(t *testing.T) {
	a := mustDense(t, [][]float64{{1, 0, 0}})
	b := mustDense(t, [][]float64{{1, 0, 0, 0}})

	_, _, _, err := EIGreedy(context.Background(), Evaluations(a, b))
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 4, dm.Actual)
}

func TestEIGreedyBasisInvariants(t *testing.T) {
	rng := testutil.NewRNG(42)
	evals := mustDense(t, rng.GaussianVectors(6, 8))

	dofs, basis, hist, err := EIGreedy(context.Background(), Evaluations(evals),
		WithMaxInterpolationDOFs(4),
	)
	require.NoError(t, err)
	require.Equal(t, StopMaxDOFsReached, hist.Stop)
	require.Equal(t, 4, len(dofs))
	require.Equal(t, 4, basis.Len())

	seen := make(map[int]bool)
	for _, dof := range dofs {
		assert.False(t, seen[dof], "dof %d selected twice", dof)
		seen[dof] = true
	}

	// The interpolation matrix carries an exact unit diagonal.
	comps := basis.Components(dofs)
	for j := 0; j < basis.Len(); j++ {
		assert.Equal(t, 1.0, comps[j][j])
	}

	for _, triErr := range hist.TriangularityErrors {
		assert.GreaterOrEqual(t, triErr, 0.0)
	}
}

func TestEIGreedySelfInterpolation(t *testing.T) {
	// The basis must reproduce itself exactly at its own DOFs: interpolating
	// the basis vectors leaves residuals at roundoff level.
	rng := testutil.NewRNG(7)
	evals := mustDense(t, rng.GaussianVectors(5, 6))

	dofs, basis, _, err := EIGreedy(context.Background(), Evaluations(evals),
		WithProjection(ProjectionEI),
		WithMaxInterpolationDOFs(4),
	)
	require.NoError(t, err)
	require.Equal(t, 4, len(dofs))

	p := &projector{projection: ProjectionEI}
	maxErr, _, err := p.maxError(context.Background(), Evaluations(basis), basis, dofs, interpMatrix(basis, dofs))
	require.NoError(t, err)
	assert.Less(t, maxErr, 1e-8)
}

func TestProjectorDeterminism(t *testing.T) {
	rng := testutil.NewRNG(11)
	evals := mustDense(t, rng.GaussianVectors(5, 7))

	dofs, basis, _, err := EIGreedy(context.Background(), Evaluations(evals),
		WithMaxInterpolationDOFs(3),
	)
	require.NoError(t, err)

	p := &projector{projection: ProjectionOrthogonal}
	interp := interpMatrix(basis, dofs)

	err1, cand1, err := p.maxError(context.Background(), Evaluations(evals), basis, dofs, interp)
	require.NoError(t, err)
	err2, cand2, err := p.maxError(context.Background(), Evaluations(evals), basis, dofs, interp)
	require.NoError(t, err)

	assert.Equal(t, err1, err2)
	assert.Equal(t, cand1, cand2)
}

func TestProjectionModesAgreeOnSingleVectorBasis(t *testing.T) {
	// With one basis vector b (unit component at its DOF), an evaluation u
	// with u[dof] = <b,u>/<b,b> gets identical EI and orthogonal
	// coefficients, so both modes must report the same error and candidate.
	basis := mustDense(t, [][]float64{{1, 1, 0}})
	dofs := []int{0}
	interp := [][]float64{{1}}
	evals := mustDense(t, [][]float64{
		{2, 2, 0},
		{1, 1, 5},
	})

	ei := &projector{projection: ProjectionEI}
	orth := &projector{projection: ProjectionOrthogonal}

	eiErr, eiCand, err := ei.maxError(context.Background(), Evaluations(evals), basis, dofs, interp)
	require.NoError(t, err)
	orthErr, orthCand, err := orth.maxError(context.Background(), Evaluations(evals), basis, dofs, interp)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, eiErr, 1e-12)
	assert.InDelta(t, eiErr, orthErr, 1e-12)
	assert.InDeltaSlice(t, eiCand, orthCand, 1e-12)
}

func TestEIGreedyWithProduct(t *testing.T) {
	evals := mustDense(t, [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})

	dofs, _, hist, err := EIGreedy(context.Background(), Evaluations(evals),
		WithProduct(diagProduct{weights: []float64{1, 2, 3}}),
		WithTargetError(1e-12),
	)
	require.NoError(t, err)
	require.False(t, errors.Is(err, ErrNotPositiveDefinite))

	assert.Equal(t, StopConverged, hist.Stop)
	assert.Equal(t, 3, len(dofs))
}

func TestEIGreedyCustomErrorNorm(t *testing.T) {
	evals := mustDense(t, [][]float64{
		{1, 0},
		{0, 3},
	})

	maxAbs := func(residual vector.Array) []float64 {
		out := make([]float64, residual.Len())
		for i := range out {
			_, out[i] = residual.AMaxAt(i)
		}
		return out
	}

	_, _, hist, err := EIGreedy(context.Background(), Evaluations(evals),
		WithErrorNorm(maxAbs),
		WithMaxInterpolationDOFs(1),
	)
	require.NoError(t, err)
	require.Equal(t, 1, len(hist.Errors))
	assert.Equal(t, 3.0, hist.Errors[0])
}

func TestEIGreedyRecordsMetrics(t *testing.T) {
	rng := testutil.NewRNG(3)
	evals := mustDense(t, rng.GaussianVectors(4, 5))

	mc := &BasicMetricsCollector{}
	_, _, _, err := EIGreedy(context.Background(), Evaluations(evals),
		WithMaxInterpolationDOFs(2),
		WithMetricsCollector(mc),
	)
	require.NoError(t, err)

	assert.Equal(t, int64(2), mc.GetStats().Extensions)
}

// interpMatrix rebuilds the interpolation matrix for a finished basis:
// entry (i,j) = component dofs[i] of basis vector j.
func interpMatrix(basis vector.Array, dofs []int) [][]float64 {
	k := len(dofs)
	comps := basis.Components(dofs)
	interp := make([][]float64, k)
	for i := 0; i < k; i++ {
		interp[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			interp[i][j] = comps[j][i]
		}
	}
	return interp
}
