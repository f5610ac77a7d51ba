// Package vector defines the vector-array contract consumed by the
// interpolation algorithms, together with a dense in-memory implementation.
//
// An Array is an ordered, mutable collection of vectors of one fixed
// dimension. The algorithms in the root package only ever talk to this
// interface, so alternative backings (distributed, memory-mapped) can be
// substituted without touching the selection loops.
package vector

import "fmt"

// Array is the capability set required from a vector container.
//
// An Array is exclusively owned by whichever component currently holds it;
// the mutating methods (Append, Remove, ScaleAt, SubInPlace) must not be
// called concurrently with reads.
type Array interface {
	// Dim returns the fixed dimension of the contained vectors.
	Dim() int

	// Len returns the number of vectors.
	Len() int

	// Empty returns a new, empty array of the same kind and dimension.
	Empty() Array

	// Copy returns a deep copy of the whole array.
	Copy() Array

	// CopyAt returns a private copy of vector i.
	CopyAt(i int) []float64

	// ComponentsAt returns the entries of vector i at the given component
	// indices.
	ComponentsAt(i int, indices []int) []float64

	// Components returns, for every vector, its entries at the given
	// component indices. Row j holds the selected components of vector j.
	Components(indices []int) [][]float64

	// Dot returns the full matrix of inner products,
	// out[i][j] = <a_i, b_j>.
	Dot(other Array) ([][]float64, error)

	// DotPairwise returns the pairwise inner products <a_i, b_i>.
	// Both arrays must have equal length.
	DotPairwise(other Array) ([]float64, error)

	// Gramian returns the matrix of pairwise inner products among the
	// contained vectors.
	Gramian() [][]float64

	// L2Norms returns the Euclidean norm of every vector.
	L2Norms() []float64

	// AMaxAt returns the component index and absolute value of the
	// largest-magnitude entry of vector i.
	AMaxAt(i int) (int, float64)

	// Lincomb forms linear combinations of the contained vectors. One
	// output vector is produced per coefficient row:
	// out_r = sum_j coeffs[r][j] * a_j.
	Lincomb(coeffs [][]float64) Array

	// Append adds a copy of v.
	Append(v []float64) error

	// AppendArray appends copies of all vectors of other.
	AppendArray(other Array) error

	// Remove drops the vectors at the given indices.
	Remove(indices []int)

	// ScaleAt multiplies vector i by alpha in place.
	ScaleAt(i int, alpha float64)

	// SubInPlace subtracts other from the receiver pairwise.
	SubInPlace(other Array) error
}

// Product computes inner products under a non-Euclidean scalar product,
// typically induced by a mass or energy matrix of the underlying
// discretization. Apply2 returns out[i][j] = <a_i, b_j>_P.
type Product interface {
	Apply2(a, b Array) ([][]float64, error)
}

// ErrDimensionMismatch indicates vectors of incompatible dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrLengthMismatch indicates arrays of incompatible length in a pairwise
// operation.
type ErrLengthMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("length mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// AMax returns the index and absolute value of the largest-magnitude entry
// of v. For an empty vector it returns (0, 0).
func AMax(v []float64) (int, float64) {
	idx, best := 0, 0.0
	for i, x := range v {
		if a := abs(x); a > best {
			idx, best = i, a
		}
	}
	return idx, best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
