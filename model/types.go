// Package model defines the discretization and operator contracts consumed
// by the interpolation algorithms, plus the interpolated-operator substitute
// produced by them.
package model

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/morkit/eigo/vector"
)

// Parameter holds the named parameter values of one sample point.
type Parameter map[string]float64

// Key returns a canonical encoding of the parameter, stable across runs.
// Persistent cache regions rely on this stability.
func (p Parameter) Key() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%.17g", name, p[name])
	}
	return b.String()
}

// Operator is a (possibly nonlinear, parameter-dependent) operator acting on
// solution vectors.
type Operator interface {
	// DimRange returns the dimension of the operator's range.
	DimRange() int

	// Apply evaluates the operator on every vector of u.
	Apply(ctx context.Context, u vector.Array, mu Parameter) (vector.Array, error)
}

// Model couples a solver with the named operators of a discretization.
type Model interface {
	// Solve computes the full-order solution for the given parameter.
	Solve(ctx context.Context, mu Parameter) (vector.Array, error)

	// Operators returns the named operators of the model.
	Operators() map[string]Operator

	// WithOperators returns a modified copy of the model with the given
	// operators substituted. The receiver is left untouched.
	WithOperators(ops map[string]Operator) Model
}
