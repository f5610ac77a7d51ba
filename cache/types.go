// Package cache provides get-or-compute regions for operator evaluations.
//
// A Region memoizes the expensive solve+apply results an evaluation provider
// produces, keyed by provider identity and sample index, with an
// at-most-once compute guarantee per key and region instance.
package cache

import (
	"context"
	"fmt"

	"github.com/morkit/eigo/vector"
)

// Key identifies one cached evaluation. Provider must be stable across
// process restarts for persistent regions to be useful.
type Key struct {
	Provider string
	Index    int
}

// String returns the canonical encoding used as storage key by persistent
// regions.
func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Provider, k.Index)
}

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) (vector.Array, error)

// Region is an evaluation cache with get-or-compute-and-store semantics.
//
// Returned arrays are shared between callers and must be treated as
// read-only; take an explicit copy before mutating. A region instance is
// driven by one consumer at a time, but implementations still collapse
// racing first accesses so compute runs at most once per key.
type Region interface {
	// GetOrCompute returns the cached value for key, computing and storing
	// it on first access. A compute error is propagated and nothing is
	// stored.
	GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (vector.Array, error)

	// Stats returns hit and miss counts.
	Stats() (hits, misses int64)

	// Close releases region resources and flushes pending writes.
	Close() error
}
