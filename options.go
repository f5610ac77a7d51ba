package eigo

import (
	"log/slog"

	"github.com/morkit/eigo/cache"
	"github.com/morkit/eigo/vector"
)

// Projection selects how the approximation error of a candidate evaluation
// is measured during the greedy search.
type Projection int

const (
	// ProjectionOrthogonal measures the error against the orthogonal
	// projection onto the span of the collateral basis.
	ProjectionOrthogonal Projection = iota

	// ProjectionEI measures the error against the empirical interpolant
	// itself.
	ProjectionEI
)

func (p Projection) String() string {
	switch p {
	case ProjectionOrthogonal:
		return "orthogonal"
	case ProjectionEI:
		return "ei"
	default:
		return "unknown"
	}
}

func (p Projection) valid() bool {
	return p == ProjectionOrthogonal || p == ProjectionEI
}

// ErrorNorm maps a residual array to one scalar error per vector. The
// default is the Euclidean norm.
type ErrorNorm func(residual vector.Array) []float64

type options struct {
	errorNorm  ErrorNorm
	targetErr  float64
	hasTarget  bool
	maxDOFs    int
	projection Projection
	product    vector.Product
	modes      int
	logger     *Logger
	metrics    MetricsCollector
	region     cache.Region
	providerID string
}

// Option configures the greedy search, DEIM, and the orchestration entry
// points. Options that do not apply to an entry point are ignored by it.
type Option func(*options)

// WithErrorNorm sets the norm in which interpolation errors are measured.
// If nil, the Euclidean norm is used.
func WithErrorNorm(norm ErrorNorm) Option {
	return func(o *options) {
		o.errorNorm = norm
	}
}

// WithTargetError stops the greedy search once the largest approximation
// error falls to or below target.
func WithTargetError(target float64) Option {
	return func(o *options) {
		o.targetErr = target
		o.hasTarget = true
	}
}

// WithMaxInterpolationDOFs stops the greedy search once the number of
// interpolation DOFs (= collateral basis size) reaches maxDOFs.
// maxDOFs <= 0 means unlimited.
func WithMaxInterpolationDOFs(maxDOFs int) Option {
	return func(o *options) {
		o.maxDOFs = maxDOFs
	}
}

// WithProjection selects the error-measurement mode of the greedy search.
// The default is ProjectionOrthogonal.
func WithProjection(p Projection) Option {
	return func(o *options) {
		o.projection = p
	}
}

// WithProduct sets the scalar product used for the orthogonal projection
// (and, in DEIM, for the POD). Supplying a product together with
// ProjectionEI is rejected: EI projection would silently ignore it.
func WithProduct(p vector.Product) Option {
	return func(o *options) {
		o.product = p
	}
}

// WithModes sets the collateral basis size DEIM requests from the POD.
// modes <= 0 means all modes above the POD tolerance.
func WithModes(modes int) Option {
	return func(o *options) {
		o.modes = modes
	}
}

// WithLogger configures structured progress logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithCacheRegion sets the cache region evaluation providers store computed
// evaluations in. The default is an in-memory region scoped to the provider.
func WithCacheRegion(region cache.Region) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithProviderID overrides the derived evaluation-provider identity used in
// cache keys. Set it when a persistent region must be shared across runs
// whose providers would otherwise derive different identities.
func WithProviderID(id string) Option {
	return func(o *options) {
		o.providerID = id
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		projection: ProjectionOrthogonal,
		logger:     NoopLogger(),
		metrics:    NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
