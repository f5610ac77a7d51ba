package model

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/morkit/eigo/vector"
)

// ErrEmptyInterpolationData is returned when an interpolated operator is
// constructed without any DOFs.
var ErrEmptyInterpolationData = errors.New("model: interpolated operator needs at least one DOF")

// ErrSingularInterpolationMatrix is returned when the interpolation matrix
// cannot be factorized.
type ErrSingularInterpolationMatrix struct {
	cause error
}

func (e *ErrSingularInterpolationMatrix) Error() string {
	return fmt.Sprintf("model: interpolation matrix is singular: %v", e.cause)
}

func (e *ErrSingularInterpolationMatrix) Unwrap() error { return e.cause }

// Interpolated substitutes an operator by its empirical interpolant: the
// wrapped operator is evaluated, restricted to the interpolation DOFs, and
// expanded through the collateral basis.
type Interpolated struct {
	inner Operator
	dofs  []int
	basis vector.Array
	lu    mat.LU
}

var _ Operator = (*Interpolated)(nil)

// NewInterpolated builds the interpolant substitute for inner from the
// interpolation data produced by a greedy run. The interpolation matrix is
// factorized once here; a singular matrix is rejected.
func NewInterpolated(inner Operator, dofs []int, basis vector.Array) (*Interpolated, error) {
	k := len(dofs)
	if k == 0 || basis.Len() != k {
		return nil, ErrEmptyInterpolationData
	}

	// Entry (i,j) is component dofs[i] of basis vector j.
	comps := basis.Components(dofs)
	m := mat.NewDense(k, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < k; i++ {
			m.Set(i, j, comps[j][i])
		}
	}

	op := &Interpolated{
		inner: inner,
		dofs:  append([]int(nil), dofs...),
		basis: basis.Copy(),
	}
	op.lu.Factorize(m)
	if err := checkConditioned(&op.lu); err != nil {
		return nil, &ErrSingularInterpolationMatrix{cause: err}
	}
	return op, nil
}

func (op *Interpolated) DimRange() int { return op.inner.DimRange() }

// DOFs returns the interpolation DOFs (read-only).
func (op *Interpolated) DOFs() []int { return op.dofs }

// Basis returns the collateral basis (read-only).
func (op *Interpolated) Basis() vector.Array { return op.basis }

func (op *Interpolated) Apply(ctx context.Context, u vector.Array, mu Parameter) (vector.Array, error) {
	au, err := op.inner.Apply(ctx, u, mu)
	if err != nil {
		return nil, err
	}

	k := len(op.dofs)
	comps := au.Components(op.dofs)
	coeffs := make([][]float64, len(comps))
	rhs := mat.NewVecDense(k, nil)
	var x mat.VecDense
	for i, row := range comps {
		copy(rhs.RawVector().Data, row)
		if err := op.lu.SolveVecTo(&x, false, rhs); err != nil {
			return nil, &ErrSingularInterpolationMatrix{cause: err}
		}
		c := make([]float64, k)
		copy(c, x.RawVector().Data)
		coeffs[i] = c
	}

	return op.basis.Lincomb(coeffs), nil
}

func checkConditioned(lu *mat.LU) error {
	// A fully singular factorization reports +Inf condition; reject it
	// eagerly instead of failing on the first Apply.
	if c := lu.Cond(); c != c || c > 1/condTol {
		return mat.Condition(c)
	}
	return nil
}

const condTol = 1e-16
