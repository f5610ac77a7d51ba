package vector

import (
	"gonum.org/v1/gonum/floats"
)

// Dense is an in-memory Array backed by one float64 slice per vector.
//
// Interpolation is numerically delicate: the Cholesky factorization of a
// near-singular Gramian loses roughly half the mantissa, so Dense stores
// float64 throughout.
type Dense struct {
	dim  int
	rows [][]float64
}

var _ Array = (*Dense)(nil)

// NewDense creates an empty dense array of the given dimension.
func NewDense(dim int) *Dense {
	return &Dense{dim: dim}
}

// NewDenseFromRows creates a dense array holding copies of the given rows.
// All rows must share one length.
func NewDenseFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return nil, &ErrDimensionMismatch{Expected: 1, Actual: 0}
	}
	d := NewDense(len(rows[0]))
	for _, r := range rows {
		if err := d.Append(r); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dense) Dim() int { return d.dim }

func (d *Dense) Len() int { return len(d.rows) }

func (d *Dense) Empty() Array { return NewDense(d.dim) }

func (d *Dense) Copy() Array {
	out := &Dense{dim: d.dim, rows: make([][]float64, len(d.rows))}
	for i, r := range d.rows {
		row := make([]float64, len(r))
		copy(row, r)
		out.rows[i] = row
	}
	return out
}

func (d *Dense) CopyAt(i int) []float64 {
	out := make([]float64, d.dim)
	copy(out, d.rows[i])
	return out
}

func (d *Dense) ComponentsAt(i int, indices []int) []float64 {
	out := make([]float64, len(indices))
	for j, c := range indices {
		out[j] = d.rows[i][c]
	}
	return out
}

func (d *Dense) Components(indices []int) [][]float64 {
	out := make([][]float64, len(d.rows))
	for i := range d.rows {
		out[i] = d.ComponentsAt(i, indices)
	}
	return out
}

func (d *Dense) Dot(other Array) ([][]float64, error) {
	if other.Dim() != d.dim {
		return nil, &ErrDimensionMismatch{Expected: d.dim, Actual: other.Dim()}
	}
	out := make([][]float64, len(d.rows))
	for i, r := range d.rows {
		row := make([]float64, other.Len())
		for j := 0; j < other.Len(); j++ {
			row[j] = floats.Dot(r, rowOf(other, j))
		}
		out[i] = row
	}
	return out, nil
}

func (d *Dense) DotPairwise(other Array) ([]float64, error) {
	if other.Dim() != d.dim {
		return nil, &ErrDimensionMismatch{Expected: d.dim, Actual: other.Dim()}
	}
	if other.Len() != len(d.rows) {
		return nil, &ErrLengthMismatch{Expected: len(d.rows), Actual: other.Len()}
	}
	out := make([]float64, len(d.rows))
	for i, r := range d.rows {
		out[i] = floats.Dot(r, rowOf(other, i))
	}
	return out, nil
}

func (d *Dense) Gramian() [][]float64 {
	n := len(d.rows)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := floats.Dot(d.rows[i], d.rows[j])
			out[i][j] = v
			out[j][i] = v
		}
	}
	return out
}

func (d *Dense) L2Norms() []float64 {
	out := make([]float64, len(d.rows))
	for i, r := range d.rows {
		out[i] = floats.Norm(r, 2)
	}
	return out
}

func (d *Dense) AMaxAt(i int) (int, float64) {
	return AMax(d.rows[i])
}

func (d *Dense) Lincomb(coeffs [][]float64) Array {
	out := NewDense(d.dim)
	for _, cs := range coeffs {
		v := make([]float64, d.dim)
		for j, c := range cs {
			if c != 0 {
				floats.AddScaled(v, c, d.rows[j])
			}
		}
		out.rows = append(out.rows, v)
	}
	return out
}

func (d *Dense) Append(v []float64) error {
	if len(v) != d.dim {
		return &ErrDimensionMismatch{Expected: d.dim, Actual: len(v)}
	}
	row := make([]float64, d.dim)
	copy(row, v)
	d.rows = append(d.rows, row)
	return nil
}

func (d *Dense) AppendArray(other Array) error {
	if other.Dim() != d.dim {
		return &ErrDimensionMismatch{Expected: d.dim, Actual: other.Dim()}
	}
	for i := 0; i < other.Len(); i++ {
		d.rows = append(d.rows, other.CopyAt(i))
	}
	return nil
}

func (d *Dense) Remove(indices []int) {
	if len(indices) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		drop[i] = struct{}{}
	}
	kept := d.rows[:0]
	for i, r := range d.rows {
		if _, ok := drop[i]; !ok {
			kept = append(kept, r)
		}
	}
	// Release references past the new end.
	for i := len(kept); i < len(d.rows); i++ {
		d.rows[i] = nil
	}
	d.rows = kept
}

func (d *Dense) ScaleAt(i int, alpha float64) {
	floats.Scale(alpha, d.rows[i])
}

func (d *Dense) SubInPlace(other Array) error {
	if other.Dim() != d.dim {
		return &ErrDimensionMismatch{Expected: d.dim, Actual: other.Dim()}
	}
	if other.Len() != len(d.rows) {
		return &ErrLengthMismatch{Expected: len(d.rows), Actual: other.Len()}
	}
	if o, ok := other.(*Dense); ok {
		for i, r := range d.rows {
			floats.Sub(r, o.rows[i])
		}
		return nil
	}
	for i, r := range d.rows {
		floats.Sub(r, rowOf(other, i))
	}
	return nil
}

// rowOf avoids the per-row copy when other is a Dense.
func rowOf(a Array, i int) []float64 {
	if d, ok := a.(*Dense); ok {
		return d.rows[i]
	}
	return a.CopyAt(i)
}
