// Package testutil provides deterministic random data generators for the
// interpolation tests and benchmarks.
package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// GaussianVectors generates num vectors of the given dimension with entries
// from a standard normal distribution. With overwhelming probability the
// result is full-rank, which the greedy tests rely on.
func (r *RNG) GaussianVectors(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range vectors {
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}
	return vectors
}

// UniformVectors generates num vectors of the given dimension with entries
// in [0, 1).
func (r *RNG) UniformVectors(num, dim int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range vectors {
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}
	return vectors
}

// RankOneVectors generates num scalar multiples of one random direction,
// all multipliers nonzero. Used to exercise rank-deficient evaluation sets.
func (r *RNG) RankOneVectors(num, dim int) [][]float64 {
	direction := r.GaussianVectors(1, dim)[0]

	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float64, num)
	for i := range vectors {
		scale := 0.5 + r.rand.Float64()
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = scale * direction[j]
		}
		vectors[i] = vec
	}
	return vectors
}
