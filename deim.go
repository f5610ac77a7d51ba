package eigo

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/morkit/eigo/pod"
	"github.com/morkit/eigo/vector"
)

// DEIM generates empirical interpolation data with a fixed candidate basis:
// the leading POD modes of the evaluations. Greediness only governs which
// DOFs, and implicitly which prefix of modes, survive.
//
// Basis vector i is interpolated using the previously accepted DOFs via a
// general linear solve (the POD basis carries no unit-diagonal structure),
// and the largest residual component becomes its DOF. A DOF proposed twice
// stops the assignment; the basis is then truncated to the DOFs actually
// accepted. History.RequestedModes and History.Truncated make such degraded
// runs distinguishable from full-size ones.
func DEIM(ctx context.Context, evaluations vector.Array, optFns ...Option) ([]int, vector.Array, *History, error) {
	o := applyOptions(optFns)

	if evaluations == nil || evaluations.Len() == 0 {
		return nil, nil, nil, ErrEmptyEvaluations
	}

	o.logger.InfoContext(ctx, "generating interpolation data",
		"method", "deim",
		"modes", o.modes,
	)

	var podOpts []pod.Option
	if o.product != nil {
		podOpts = append(podOpts, pod.WithProduct(o.product))
	}
	basis, svals, err := pod.Compute(evaluations, o.modes, podOpts...)
	if err != nil {
		return nil, nil, nil, err
	}
	o.logger.DebugContext(ctx, "pod basis computed",
		"modes", basis.Len(),
		"singular_values", svals,
	)

	hist := &History{RequestedModes: o.modes, Stop: StopConverged}
	var dofs []int
	var interp *mat.Dense
	podLen := basis.Len()

	for i := 0; i < podLen; i++ {
		k := len(dofs)

		residual := basis.CopyAt(i)
		if k > 0 {
			b := mat.NewVecDense(k, basis.ComponentsAt(i, dofs))
			var x mat.VecDense
			if err := x.SolveVec(interp, b); err != nil {
				return nil, nil, nil, fmt.Errorf("interpolation matrix solve: %w", err)
			}
			coeffs := make([]float64, k)
			for j := 0; j < k; j++ {
				coeffs[j] = x.AtVec(j)
			}
			floats.Sub(residual, basis.Lincomb([][]float64{coeffs}).CopyAt(0))
		}

		errVal := residualNorm(o.errorNorm, basis, residual)
		o.logger.InfoContext(ctx, "interpolation error",
			"mode", i,
			"err", errVal,
		)

		newDOF, _ := vector.AMax(residual)
		if containsDOF(dofs, newDOF) {
			hist.Stop = StopDOFCollision
			o.logger.LogStop(ctx, StopDOFCollision, len(dofs))
			break
		}

		dofs = append(dofs, newDOF)
		hist.Errors = append(hist.Errors, errVal)
		o.metrics.RecordExtension(len(dofs), errVal)

		// Rebuild the interpolation matrix over the accepted prefix:
		// entry (r,c) = component dofs[r] of basis vector c.
		k = len(dofs)
		interp = mat.NewDense(k, k, nil)
		for c := 0; c < k; c++ {
			col := basis.ComponentsAt(c, dofs)
			for r := 0; r < k; r++ {
				interp.Set(r, c, col[r])
			}
		}
	}

	if len(dofs) < podLen {
		drop := make([]int, 0, podLen-len(dofs))
		for i := len(dofs); i < podLen; i++ {
			drop = append(drop, i)
		}
		basis.Remove(drop)
	}
	hist.Truncated = len(dofs) < podLen || (o.modes > 0 && podLen < o.modes)

	o.logger.InfoContext(ctx, "finished", "dofs", len(dofs), "truncated", hist.Truncated)

	return dofs, basis, hist, nil
}

// residualNorm evaluates the configured error norm on a single residual
// vector.
func residualNorm(norm ErrorNorm, like vector.Array, residual []float64) float64 {
	if norm == nil {
		return floats.Norm(residual, 2)
	}
	re := like.Empty()
	// Append cannot fail: residual was copied out of like.
	_ = re.Append(residual)
	return norm(re)[0]
}

// containsDOF is a linear scan; DEIM bases are small enough that a set
// would not pay for itself.
func containsDOF(dofs []int, dof int) bool {
	for _, d := range dofs {
		if d == dof {
			return true
		}
	}
	return false
}
