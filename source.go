package eigo

import (
	"context"

	"github.com/morkit/eigo/vector"
)

// EvaluationSource is a finite, indexable sequence of evaluation batches.
// Each batch is an independent array of candidate vectors of one common
// dimension. EvaluationProvider implements this lazily; Evaluations adapts
// in-memory arrays.
//
// At may be called repeatedly for the same index within one run; sources
// backed by expensive computations are expected to cache.
type EvaluationSource interface {
	Len() int
	At(ctx context.Context, i int) (vector.Array, error)
}

// Evaluations adapts precomputed arrays into an EvaluationSource.
// Each array becomes one batch.
func Evaluations(batches ...vector.Array) EvaluationSource {
	return sliceSource(batches)
}

type sliceSource []vector.Array

func (s sliceSource) Len() int { return len(s) }

func (s sliceSource) At(ctx context.Context, i int) (vector.Array, error) {
	if i < 0 || i >= len(s) {
		return nil, &ErrIndexOutOfRange{Index: i, Len: len(s)}
	}
	return s[i], nil
}

// StopReason names the terminal state of a greedy run. All three states are
// successful outcomes, not failures.
type StopReason int

const (
	// StopConverged: the configured target error was reached.
	StopConverged StopReason = iota

	// StopMaxDOFsReached: the configured DOF budget was exhausted.
	StopMaxDOFsReached

	// StopDOFCollision: the selection proposed an already-used DOF; the
	// basis accumulated so far is returned.
	StopDOFCollision
)

func (r StopReason) String() string {
	switch r {
	case StopConverged:
		return "converged"
	case StopMaxDOFsReached:
		return "max-dofs-reached"
	case StopDOFCollision:
		return "dof-collision"
	default:
		return "unknown"
	}
}

// History carries the per-step diagnostics of a greedy run.
type History struct {
	// Errors holds the maximum approximation error recorded at each
	// accepted extension step.
	Errors []float64

	// TriangularityErrors holds, for EI-Greedy, the deviation of the
	// interpolation matrix from exact lower triangularity after each step.
	// Purely a numerical-health diagnostic; never drives control flow.
	TriangularityErrors []float64

	// Stop names the terminal state the run ended in.
	Stop StopReason

	// RequestedModes is, for DEIM, the POD basis size that was requested
	// (0 = all modes above tolerance).
	RequestedModes int

	// Truncated reports, for DEIM, that fewer DOFs were assigned than
	// basis vectors requested, either because the POD dropped negligible
	// modes or because the selection collided early.
	Truncated bool
}
