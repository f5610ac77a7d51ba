package eigo

import (
	"context"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/morkit/eigo/vector"
)

// projector measures, for given interpolation data, the worst-case
// approximation error over all evaluation batches and extracts the vector
// proposed for basis extension.
//
// It holds no mutable state: repeated invocations with unchanged inputs
// return identical results, and the Cholesky factorization is rebuilt per
// invocation rather than cached across basis extensions.
type projector struct {
	projection Projection
	errorNorm  ErrorNorm
	product    vector.Product
}

// maxError returns the maximum approximation error across all batches and a
// private copy of the extension candidate.
//
// Candidate extraction is intentionally asymmetric in orthogonal mode: the
// reported error comes from the orthogonal residual, but the candidate is
// the argmax evaluation minus its EI-style interpolant. The new basis vector
// thus equals the cheaper interpolation error rather than the full
// orthogonal residual.
func (p *projector) maxError(ctx context.Context, src EvaluationSource, basis vector.Array, dofs []int, interp [][]float64) (float64, []float64, error) {
	k := len(dofs)

	var chol mat.Cholesky
	if p.projection == ProjectionOrthogonal && k > 0 {
		gram, err := p.gramian(basis)
		if err != nil {
			return 0, nil, err
		}
		sym := mat.NewSymDense(k, nil)
		for i := 0; i < k; i++ {
			for j := i; j < k; j++ {
				sym.SetSym(i, j, 0.5*(gram[i][j]+gram[j][i]))
			}
		}
		if !chol.Factorize(sym) {
			return 0, nil, ErrNotPositiveDefinite
		}
	}

	maxErr := -1.0
	var candidate []float64

	for b := 0; b < src.Len(); b++ {
		au, err := src.At(ctx, b)
		if err != nil {
			return 0, nil, err
		}
		if au.Len() == 0 {
			return 0, nil, ErrEmptyEvaluations
		}
		if au.Dim() != basis.Dim() {
			return 0, nil, &ErrDimensionMismatch{Expected: basis.Dim(), Actual: au.Dim()}
		}

		var residual vector.Array
		switch {
		case k == 0:
			residual = au
		case p.projection == ProjectionEI:
			interpolated, err := p.interpolate(au, basis, dofs, interp)
			if err != nil {
				return 0, nil, err
			}
			residual = au.Copy()
			if err := residual.SubInPlace(interpolated); err != nil {
				return 0, nil, err
			}
		default:
			projected, err := p.project(au, basis, &chol)
			if err != nil {
				return 0, nil, err
			}
			residual = au.Copy()
			if err := residual.SubInPlace(projected); err != nil {
				return 0, nil, err
			}
		}

		errs := p.norms(residual)
		for i, e := range errs {
			if e <= maxErr {
				continue
			}
			maxErr = e
			if k == 0 || p.projection == ProjectionEI {
				candidate = residual.CopyAt(i)
			} else {
				candidate = au.CopyAt(i)
				floats.Sub(candidate, p.interpolateOne(au, i, basis, dofs, interp))
			}
		}
	}

	return maxErr, candidate, nil
}

// interpolate computes the empirical interpolant of every vector of au by a
// unit-lower-triangular solve against its components at the DOFs.
func (p *projector) interpolate(au vector.Array, basis vector.Array, dofs []int, interp [][]float64) (vector.Array, error) {
	comps := au.Components(dofs)
	coeffs := make([][]float64, len(comps))
	for i, row := range comps {
		coeffs[i] = solveUnitLower(interp, row)
	}
	return basis.Lincomb(coeffs), nil
}

// interpolateOne computes the empirical interpolant of vector i of au.
func (p *projector) interpolateOne(au vector.Array, i int, basis vector.Array, dofs []int, interp [][]float64) []float64 {
	c := solveUnitLower(interp, au.ComponentsAt(i, dofs))
	return basis.Lincomb([][]float64{c}).CopyAt(0)
}

// project computes the orthogonal projection of every vector of au onto the
// basis span using the prefactorized Cholesky of the Gramian.
func (p *projector) project(au vector.Array, basis vector.Array, chol *mat.Cholesky) (vector.Array, error) {
	var rhs [][]float64
	var err error
	if p.product != nil {
		rhs, err = p.product.Apply2(basis, au)
	} else {
		rhs, err = basis.Dot(au)
	}
	if err != nil {
		return nil, err
	}

	k := basis.Len()
	m := au.Len()
	coeffs := make([][]float64, m)
	b := mat.NewVecDense(k, nil)
	var x mat.VecDense
	for j := 0; j < m; j++ {
		for i := 0; i < k; i++ {
			b.SetVec(i, rhs[i][j])
		}
		if err := chol.SolveVecTo(&x, b); err != nil {
			return nil, ErrNotPositiveDefinite
		}
		c := make([]float64, k)
		for i := 0; i < k; i++ {
			c[i] = x.AtVec(i)
		}
		coeffs[j] = c
	}
	return basis.Lincomb(coeffs), nil
}

func (p *projector) norms(residual vector.Array) []float64 {
	if p.errorNorm != nil {
		return p.errorNorm(residual)
	}
	return residual.L2Norms()
}

func (p *projector) gramian(basis vector.Array) ([][]float64, error) {
	if p.product != nil {
		return p.product.Apply2(basis, basis)
	}
	return basis.Gramian(), nil
}

// solveUnitLower solves m*x = b treating m as unit lower triangular: the
// stored diagonal is ignored and taken as exactly 1, matching the contract
// the unit-diagonal normalization of accepted basis vectors establishes.
func solveUnitLower(m [][]float64, b []float64) []float64 {
	x := make([]float64, len(b))
	for i := range b {
		s := b[i]
		for j := 0; j < i; j++ {
			s -= m[i][j] * x[j]
		}
		x[i] = s
	}
	return x
}
