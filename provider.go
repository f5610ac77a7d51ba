package eigo

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/morkit/eigo/cache"
	"github.com/morkit/eigo/model"
	"github.com/morkit/eigo/vector"
)

// EvaluationProvider exposes a finite, indexable, lazily computed sequence
// of operator evaluations: for sample index i, the model is solved at
// parameter i and every configured operator is applied to the solution; the
// resulting vectors are concatenated into one array and stored in the cache
// region. Subsequent accesses return the cached value, so each index is
// computed at most once per region.
type EvaluationProvider struct {
	model     model.Model
	operators []model.Operator
	sample    []model.Parameter
	region    cache.Region
	id        string
	logger    *Logger
	metrics   MetricsCollector
}

var _ EvaluationSource = (*EvaluationProvider)(nil)

// NewEvaluationProvider creates a provider over the given operators and
// parameter sample. If no cache region is configured, a fresh in-memory
// region scoped to this provider is used.
func NewEvaluationProvider(m model.Model, operators []model.Operator, sample []model.Parameter, optFns ...Option) *EvaluationProvider {
	o := applyOptions(optFns)

	region := o.region
	if region == nil {
		region = cache.NewMemory()
	}

	id := o.providerID
	if id == "" {
		id = deriveProviderID(len(operators), sample)
	}

	return &EvaluationProvider{
		model:     m,
		operators: operators,
		sample:    sample,
		region:    region,
		id:        id,
		logger:    o.logger,
		metrics:   o.metrics,
	}
}

// Len returns the number of parameters in the sample.
func (p *EvaluationProvider) Len() int { return len(p.sample) }

// ID returns the provider identity used in cache keys.
func (p *EvaluationProvider) ID() string { return p.id }

// At returns the evaluation array for sample index i, computing and caching
// it on first access.
func (p *EvaluationProvider) At(ctx context.Context, i int) (vector.Array, error) {
	if i < 0 || i >= len(p.sample) {
		return nil, &ErrIndexOutOfRange{Index: i, Len: len(p.sample)}
	}
	key := cache.Key{Provider: p.id, Index: i}
	return p.region.GetOrCompute(ctx, key, func(ctx context.Context) (vector.Array, error) {
		return p.compute(ctx, i)
	})
}

func (p *EvaluationProvider) compute(ctx context.Context, i int) (vector.Array, error) {
	if len(p.operators) == 0 {
		return nil, ErrEmptyEvaluations
	}
	mu := p.sample[i]

	start := time.Now()
	u, err := p.model.Solve(ctx, mu)
	p.metrics.RecordSolve(time.Since(start), err)
	if err != nil {
		p.logger.LogEvaluation(ctx, i, mu.Key(), err)
		return nil, err
	}

	out := vector.NewDense(p.operators[0].DimRange())
	for _, op := range p.operators {
		start := time.Now()
		au, err := op.Apply(ctx, u, mu)
		p.metrics.RecordApply(time.Since(start), err)
		if err != nil {
			p.logger.LogEvaluation(ctx, i, mu.Key(), err)
			return nil, err
		}
		if err := out.AppendArray(au); err != nil {
			return nil, &ErrDimensionMismatch{Expected: out.Dim(), Actual: au.Dim(), cause: err}
		}
	}

	p.logger.LogEvaluation(ctx, i, mu.Key(), nil)
	return out, nil
}

// deriveProviderID hashes the sample so persistent regions keyed by this
// provider stay stable across runs over the same sample.
func deriveProviderID(numOperators int, sample []model.Parameter) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "ops=%d", numOperators)
	for _, mu := range sample {
		fmt.Fprintf(h, ";%s", mu.Key())
	}
	return fmt.Sprintf("ei-%016x", h.Sum64())
}
