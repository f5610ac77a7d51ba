// Package pod extracts orthonormal bases from snapshot sets by proper
// orthogonal decomposition.
//
// The implementation uses the method of snapshots: the (possibly
// product-weighted) Gramian of the snapshots is diagonalized and the modes
// are recovered as linear combinations of the snapshots. This keeps all
// heavy linear algebra at snapshot-count size, which is small compared to
// the vector dimension in the intended workloads.
package pod

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/morkit/eigo/vector"
)

// DefaultRelTol is the relative singular-value cutoff below which modes are
// considered numerical noise and dropped. Roughly sqrt of float64 epsilon:
// squaring inside the Gramian halves the usable mantissa.
const DefaultRelTol = 4e-8

// ErrEmptySnapshots is returned when the snapshot set holds no vectors.
var ErrEmptySnapshots = errors.New("pod: empty snapshot set")

// ErrIndefiniteGramian is returned when the snapshot Gramian fails to
// diagonalize, which for a true Gramian cannot happen and indicates a broken
// product operator.
var ErrIndefiniteGramian = errors.New("pod: snapshot gramian failed to diagonalize")

type options struct {
	product vector.Product
	relTol  float64
}

// Option configures a POD computation.
type Option func(*options)

// WithProduct computes the decomposition orthonormal with respect to the
// given scalar product instead of the Euclidean one.
func WithProduct(p vector.Product) Option {
	return func(o *options) {
		o.product = p
	}
}

// WithRelTol overrides the relative singular-value cutoff.
func WithRelTol(tol float64) Option {
	return func(o *options) {
		o.relTol = tol
	}
}

// Compute returns up to modes orthonormal POD modes of the snapshots,
// together with the corresponding singular values in descending order.
//
// modes <= 0 requests all modes above the tolerance cutoff. Fewer modes than
// requested are returned when trailing singular values fall below the
// cutoff, so the returned basis length is authoritative.
func Compute(snapshots vector.Array, modes int, optFns ...Option) (vector.Array, []float64, error) {
	o := options{relTol: DefaultRelTol}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	n := snapshots.Len()
	if n == 0 {
		return nil, nil, ErrEmptySnapshots
	}

	var gram [][]float64
	if o.product != nil {
		g, err := o.product.Apply2(snapshots, snapshots)
		if err != nil {
			return nil, nil, err
		}
		gram = g
	} else {
		gram = snapshots.Gramian()
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Symmetrize: a product operator may return tiny asymmetries.
			sym.SetSym(i, j, 0.5*(gram[i][j]+gram[j][i]))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, nil, ErrIndefiniteGramian
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back ascending; the dominant mode is last.
	maxSV := 0.0
	if v := values[n-1]; v > 0 {
		maxSV = math.Sqrt(v)
	}

	coeffs := make([][]float64, 0, n)
	svals := make([]float64, 0, n)
	for k := n - 1; k >= 0; k-- {
		if modes > 0 && len(svals) >= modes {
			break
		}
		if values[k] <= 0 {
			break
		}
		sv := math.Sqrt(values[k])
		if sv <= o.relTol*maxSV {
			break
		}
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			row[i] = vecs.At(i, k) / sv
		}
		coeffs = append(coeffs, row)
		svals = append(svals, sv)
	}

	return snapshots.Lincomb(coeffs), svals, nil
}
