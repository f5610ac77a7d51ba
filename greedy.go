package eigo

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/morkit/eigo/vector"
)

// greedyState is the accumulating state of one greedy run: the growing
// collateral basis, the DOFs in selection order, a bitmap over the selected
// DOFs for constant-time duplicate tests, the interpolation matrix, and the
// per-step diagnostics. It is owned by the single active selection loop.
type greedyState struct {
	basis   vector.Array
	dofs    []int
	dofSet  *roaring.Bitmap
	interp  [][]float64 // entry (i,j) = component dofs[i] of basis vector j
	maxErrs []float64
	triErrs []float64
}

func newGreedyState(like vector.Array) *greedyState {
	return &greedyState{
		basis:  like.Empty(),
		dofSet: roaring.New(),
	}
}

func (s *greedyState) contains(dof int) bool {
	return s.dofSet.Contains(uint32(dof))
}

// extend normalizes candidate by its own component at dof (enforcing the
// unit diagonal of the interpolation matrix), appends it, and recomputes the
// interpolation matrix. It returns the matrix's deviation from exact lower
// triangularity.
func (s *greedyState) extend(candidate []float64, dof int) (float64, error) {
	floats.Scale(1/candidate[dof], candidate)
	// x*(1/x) can round to 1±ulp; the diagonal entry must be exactly 1.
	candidate[dof] = 1

	if err := s.basis.Append(candidate); err != nil {
		return 0, err
	}
	s.dofs = append(s.dofs, dof)
	s.dofSet.Add(uint32(dof))

	k := len(s.dofs)
	comps := s.basis.Components(s.dofs)
	interp := make([][]float64, k)
	for i := 0; i < k; i++ {
		interp[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			interp[i][j] = comps[j][i]
		}
	}
	s.interp = interp

	triErr := 0.0
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			if a := interp[i][j]; a > triErr {
				triErr = a
			} else if -a > triErr {
				triErr = -a
			}
		}
	}
	return triErr, nil
}

// EIGreedy generates empirical interpolation data by greedy search: at each
// step the worst-approximated operator evaluation extends the collateral
// basis, and the component where its residual is largest becomes the new
// interpolation DOF.
//
// The run ends in one of three terminal states (see History.Stop), all of
// which return the accumulated DOFs, basis, and diagnostics. Configuration
// and dimension problems are rejected before the first iteration; a Gramian
// that fails to Cholesky-factorize in orthogonal mode aborts the run with
// ErrNotPositiveDefinite and no partial result.
func EIGreedy(ctx context.Context, evaluations EvaluationSource, optFns ...Option) ([]int, vector.Array, *History, error) {
	o := applyOptions(optFns)

	if !o.projection.valid() {
		return nil, nil, nil, &ErrInvalidProjection{Projection: o.projection}
	}
	if o.product != nil && o.projection == ProjectionEI {
		return nil, nil, nil, ErrProductRequiresOrthogonal
	}
	if evaluations == nil || evaluations.Len() == 0 {
		return nil, nil, nil, ErrEmptyEvaluations
	}

	first, err := evaluations.At(ctx, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	if first.Len() == 0 {
		return nil, nil, nil, ErrEmptyEvaluations
	}

	o.logger.InfoContext(ctx, "generating interpolation data",
		"projection", o.projection.String(),
		"batches", evaluations.Len(),
	)

	st := newGreedyState(first)
	p := &projector{projection: o.projection, errorNorm: o.errorNorm, product: o.product}
	hist := &History{}

	for {
		maxErr, candidate, err := p.maxError(ctx, evaluations, st.basis, st.dofs, st.interp)
		if err != nil {
			return nil, nil, nil, err
		}

		o.logger.LogMaxError(ctx, len(st.dofs), maxErr)

		if o.hasTarget && maxErr <= o.targetErr {
			hist.Stop = StopConverged
			o.logger.LogStop(ctx, StopConverged, len(st.dofs))
			break
		}

		newDOF, _ := vector.AMax(candidate)
		if st.contains(newDOF) {
			hist.Stop = StopDOFCollision
			o.logger.LogStop(ctx, StopDOFCollision, len(st.dofs))
			break
		}

		triErr, err := st.extend(candidate, newDOF)
		if err != nil {
			return nil, nil, nil, err
		}
		st.maxErrs = append(st.maxErrs, maxErr)
		st.triErrs = append(st.triErrs, triErr)
		o.metrics.RecordExtension(len(st.dofs), maxErr)
		o.logger.LogExtension(ctx, len(st.dofs), newDOF, maxErr, triErr)

		if o.maxDOFs > 0 && len(st.dofs) >= o.maxDOFs {
			hist.Stop = StopMaxDOFsReached
			// Recompute the final error for reporting only.
			finalErr, _, err := p.maxError(ctx, evaluations, st.basis, st.dofs, st.interp)
			if err != nil {
				return nil, nil, nil, err
			}
			o.logger.LogMaxError(ctx, len(st.dofs), finalErr)
			o.logger.LogStop(ctx, StopMaxDOFsReached, len(st.dofs))
			break
		}
	}

	hist.Errors = st.maxErrs
	hist.TriangularityErrors = st.triErrs
	return st.dofs, st.basis, hist, nil
}
