package eigo

import (
	"context"

	"github.com/morkit/eigo/model"
	"github.com/morkit/eigo/vector"
)

// InterpolationData aggregates the artifacts of an InterpolateOperators run.
type InterpolationData struct {
	// DOFs are the component indices at which the operators have to be
	// evaluated.
	DOFs []int

	// Basis is the generated collateral basis, shared by all interpolated
	// operators.
	Basis vector.Array

	// History carries the greedy-search diagnostics.
	History *History
}

// InterpolateOperators is the convenience entry point for empirical operator
// interpolation: it evaluates the named operators on solution snapshots for
// the parameter sample (lazily, through a cached EvaluationProvider), runs
// EIGreedy on the evaluations, and returns a modified model in which every
// named operator is replaced by its interpolant.
//
// One common collateral basis is built for all named operators.
func InterpolateOperators(ctx context.Context, m model.Model, operatorNames []string, sample []model.Parameter, optFns ...Option) (model.Model, *InterpolationData, error) {
	available := m.Operators()
	operators := make([]model.Operator, len(operatorNames))
	for i, name := range operatorNames {
		op, ok := available[name]
		if !ok {
			return nil, nil, &ErrUnknownOperator{Name: name}
		}
		operators[i] = op
	}

	provider := NewEvaluationProvider(m, operators, sample, optFns...)

	dofs, basis, hist, err := EIGreedy(ctx, provider, optFns...)
	if err != nil {
		return nil, nil, err
	}

	data := &InterpolationData{DOFs: dofs, Basis: basis, History: hist}

	// A run that converged before accepting a single DOF has nothing to
	// substitute; the model is returned unchanged.
	if len(dofs) == 0 {
		return m, data, nil
	}

	substituted := make(map[string]model.Operator, len(available))
	for name, op := range available {
		substituted[name] = op
	}
	for i, name := range operatorNames {
		ei, err := model.NewInterpolated(operators[i], dofs, basis)
		if err != nil {
			return nil, nil, err
		}
		substituted[name] = ei
	}

	return m.WithOperators(substituted), data, nil
}
